package deontic

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/config"
	"github.com/eolbcV2/contract"
	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
)

// 义务：固定目录中的一条道义规则
type duty struct {
	id          string
	description string
	weight      float64
	strong      []*regexp.Regexp // 强关键词，命中计0.3
	weak        []*regexp.Regexp // 弱关键词，命中计0.1
	contextual  []*regexp.Regexp // 上下文增强模式，每命中一条加0.2
	contextCap  float64          // 上下文加成上限
}

// 单条义务的违反评估
type violation struct {
	RuleId        string  `json:"rule_id"`
	Description   string  `json:"description"`
	Score         float64 `json:"score"`
	WeightedScore float64 `json:"weighted_score"`
}

type evalRecord struct {
	timestamp int64
	compliant bool
}

var _ contract.RuleEngine = (*Engine)(nil)

// 道义规则引擎：五条加权义务，违反分数超过0.3判定违反
type Engine struct {
	*contract.Base
	duties    []duty
	window    []evalRecord // 最近评估的FIFO窗口
	windowCap int
}

func New() *Engine {
	e := &Engine{
		Base:      contract.NewBase("deontic"),
		duties:    buildDuties(),
		windowCap: config.GetInt("deontic.window"),
	}
	e.Register("CheckCompliance", func(args map[string]interface{}) (interface{}, error) {
		return e.CheckCompliance(contract.ActionFromArgs(args), args), nil
	})
	e.Register("CheckUniversalizability", func(args map[string]interface{}) (interface{}, error) {
		maxim, _ := args["maxim"].(string)
		return e.CheckUniversalizability(maxim), nil
	})
	e.Register("GetApplicableRules", func(args map[string]interface{}) (interface{}, error) {
		return e.ApplicableRules(), nil
	})
	e.Register("GetComplianceStats", func(args map[string]interface{}) (interface{}, error) {
		return e.ComplianceStats(), nil
	})
	return e
}

func buildDuties() []duty {
	return []duty{
		{
			id:          "do_not_lie",
			description: "Do not lie or deceive others",
			weight:      0.9,
			strong:      contract.CompileKeywords([]string{"lie", "lying", "lied", "deceive", "deception", "falsify", "fabricate"}),
			weak:        contract.CompileKeywords([]string{"mislead", "misinform", "distort", "exaggerate"}),
			contextual: contract.CompilePatterns([]string{
				`\b(lie|lied|lying)\s+to\b`,
				`\bfalse\s+(information|claims?|statements?)\b`,
				`\bcover\s+up\b`,
			}),
			contextCap: 0.7,
		},
		{
			id:          "keep_promises",
			description: "Keep promises and commitments",
			weight:      0.8,
			strong:      contract.CompileKeywords([]string{"break a promise", "break my promise", "break the promise", "renege", "betray"}),
			weak:        contract.CompileKeywords([]string{"back out", "abandon the agreement", "ignore the commitment"}),
			contextual: contract.CompilePatterns([]string{
				`\bbreak\w*\s+(my|our|the|a)\s+promise`,
				`\bfail\w*\s+to\s+(deliver|honor)\b`,
				`\bgo\s+back\s+on\b`,
			}),
			contextCap: 0.6,
		},
		{
			id:          "respect_autonomy",
			description: "Respect the autonomy of rational agents",
			weight:      0.85,
			strong:      contract.CompileKeywords([]string{"force", "coerce", "coercion", "manipulate", "manipulation"}),
			weak:        contract.CompileKeywords([]string{"pressure", "override", "impose"}),
			contextual: contract.CompilePatterns([]string{
				`\bwithout\s+(their|his|her|the\w*\s+)?consent\b`,
				`\bagainst\s+\w+\s+will\b`,
				`\bno\s+choice\b`,
			}),
			contextCap: 0.7,
		},
		{
			id:          "do_not_steal",
			description: "Do not steal or misappropriate property",
			weight:      0.9,
			strong:      contract.CompileKeywords([]string{"steal", "stealing", "theft", "stolen", "embezzle", "rob"}),
			weak:        contract.CompileKeywords([]string{"misappropriate", "plagiarize", "pirate"}),
			contextual: contract.CompilePatterns([]string{
				`\btake\s+\w+\s+without\s+(asking|permission)\b`,
				`\b(steal|rob)\w*\s+(\w+\s+){0,2}from\b`,
			}),
			contextCap: 0.6,
		},
		{
			id:          "do_not_harm",
			description: "Do not cause harm to others",
			weight:      1.0,
			strong:      contract.CompileKeywords([]string{"harm", "hurt", "injure", "kill", "attack", "abuse"}),
			weak:        contract.CompileKeywords([]string{"endanger", "threaten", "damage"}),
			contextual: contract.CompilePatterns([]string{
				`\b(cause|inflict)\w*\s+(harm|pain|suffering)\b`,
				`\bput\w*\s+\w+\s+at\s+risk\b`,
			}),
			contextCap: 0.7,
		},
	}
}

// 对动作描述做义务合规评估
func (e *Engine) CheckCompliance(action string, kwargs map[string]interface{}) map[string]interface{} {
	clean := contract.Sanitize(action)
	if clean == "" {
		res := contract.FailClosed("empty or non-text action description")
		e.record(false)
		return res
	}
	text := strings.ToLower(clean)

	violations := make([]violation, 0)
	for _, d := range e.duties {
		score, hits := 0.0, 0
		for _, p := range d.strong {
			if p.MatchString(text) {
				score += 0.3
				hits++
			}
		}
		for _, p := range d.weak {
			if p.MatchString(text) {
				score += 0.1
				hits++
			}
		}
		if hits > 1 {
			score += 0.2
		}
		ctx := 0.2 * float64(contract.CountMatches(text, d.contextual))
		if ctx > d.contextCap {
			ctx = d.contextCap
		}
		score = util.Clamp(score+ctx, 0, 1)
		if score > 0.3 {
			violations = append(violations, violation{
				RuleId:        d.id,
				Description:   d.description,
				Score:         score,
				WeightedScore: score * d.weight,
			})
		}
	}

	if len(violations) == 0 {
		e.record(true)
		return map[string]interface{}{
			"compliant":    true,
			"confidence":   0.8,
			"reasoning":    "no duty violations detected in the action description",
			"rule_applied": "no_violation",
			"violations":   violations,
		}
	}

	// 加权分降序，分数相同时按规则id保证确定性
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].WeightedScore != violations[j].WeightedScore {
			return violations[i].WeightedScore > violations[j].WeightedScore
		}
		return violations[i].RuleId < violations[j].RuleId
	})
	top := violations[0]
	e.record(false)
	return map[string]interface{}{
		"compliant":    false,
		"confidence":   util.Clamp(top.WeightedScore, 0, 0.9),
		"reasoning":    fmt.Sprintf("action violates duty %q: %s", top.RuleId, top.Description),
		"rule_applied": top.RuleId,
		"violations":   violations,
	}
}

// 可普遍化检验：识别自我例外式的准则表述，近似康德的可普遍化测试
func (e *Engine) CheckUniversalizability(maxim string) map[string]interface{} {
	clean := strings.ToLower(contract.Sanitize(maxim))
	if clean == "" {
		return contract.FailClosed("empty maxim")
	}
	selfExceptions := []string{"only me", "only i", "except myself", "except me", "just for me", "everyone but me", "i alone"}
	matched := make([]string, 0)
	for _, phrase := range selfExceptions {
		if strings.Contains(clean, phrase) {
			matched = append(matched, phrase)
		}
	}
	if len(matched) > 0 {
		return map[string]interface{}{
			"universalizable": false,
			"confidence":      0.7,
			"reasoning":       fmt.Sprintf("maxim contains self-exception phrasing: %s", strings.Join(matched, ", ")),
			"rule_applied":    "universalizability",
		}
	}
	return map[string]interface{}{
		"universalizable": true,
		"confidence":      0.6,
		"reasoning":       "no self-exception phrasing detected",
		"rule_applied":    "universalizability",
	}
}

func (e *Engine) ApplicableRules() []meta.RuleDescriptor {
	rules := make([]meta.RuleDescriptor, 0, len(e.duties))
	for _, d := range e.duties {
		rules = append(rules, meta.RuleDescriptor{
			Id:          d.id,
			Description: d.description,
			Weight:      d.weight,
			Category:    "deontological",
		})
	}
	return rules
}

// 滚动窗口内的合规率统计
func (e *Engine) ComplianceStats() map[string]interface{} {
	total := len(e.window)
	compliant := 0
	for _, r := range e.window {
		if r.compliant {
			compliant++
		}
	}
	rate := 0.0
	if total > 0 {
		rate = float64(compliant) / float64(total)
	}
	return map[string]interface{}{
		"window_size":     total,
		"compliant_count": compliant,
		"compliance_rate": rate,
	}
}

func (e *Engine) record(compliant bool) {
	e.window = append(e.window, evalRecord{timestamp: time.Now().Unix(), compliant: compliant})
	if len(e.window) > e.windowCap {
		over := len(e.window) - e.windowCap
		e.window = e.window[over:]
		log.Infof("[deontic] 评估窗口已满，淘汰最早的%d条记录", over)
	}
}
