package virtue

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/contract"
	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
)

// 信誉EMA的平滑系数
const emaAlpha = 0.1

// 美德目录中的一项
type virtueTrait struct {
	id           string
	description  string
	weight       float64
	positive     []*regexp.Regexp // 美德关键词，命中计0.2
	vices        []*regexp.Regexp // 恶习关键词，命中计0.2
	posPatterns  []*regexp.Regexp // 上下文增强，每命中加0.3
	vicePatterns []*regexp.Regexp
}

// 单项美德的评估信号
type traitSignal struct {
	Id          string  `json:"id"`
	VirtueScore float64 `json:"virtue_score"`
	ViceScore   float64 `json:"vice_score"`
	NetScore    float64 `json:"net_score"`
}

var _ contract.RuleEngine = (*Engine)(nil)

// 美德信誉引擎：六项加权美德 + 按agent的EMA信誉记录
type Engine struct {
	*contract.Base
	traits  []virtueTrait
	records map[string]*meta.ReputationRecord
}

func New() *Engine {
	e := &Engine{
		Base:    contract.NewBase("virtue"),
		traits:  buildTraits(),
		records: map[string]*meta.ReputationRecord{},
	}
	e.Register("CheckCompliance", func(args map[string]interface{}) (interface{}, error) {
		return e.CheckCompliance(contract.ActionFromArgs(args), args), nil
	})
	e.Register("AssessGoldenMean", func(args map[string]interface{}) (interface{}, error) {
		name, _ := args["virtue"].(string)
		intensity := 0.0
		switch v := args["intensity"].(type) {
		case int:
			intensity = float64(v)
		case float64:
			intensity = v
		}
		return e.AssessGoldenMean(name, intensity), nil
	})
	e.Register("GetReputationLeaderboard", func(args map[string]interface{}) (interface{}, error) {
		limit := 10
		if raw, ok := args["limit"]; ok {
			switch v := raw.(type) {
			case int:
				limit = v
			case float64:
				limit = int(v)
			}
		}
		return e.ReputationLeaderboard(limit), nil
	})
	e.Register("GetAgentReputation", func(args map[string]interface{}) (interface{}, error) {
		agentId, _ := args["agent_id"].(string)
		rec, ok := e.records[agentId]
		if !ok {
			// 缺失的agent信誉属于数据质量问题，返回空记录而非报错
			return map[string]interface{}{"agent_id": agentId, "known": false}, nil
		}
		return rec, nil
	})
	e.Register("GetApplicableRules", func(args map[string]interface{}) (interface{}, error) {
		return e.ApplicableRules(), nil
	})
	return e
}

func buildTraits() []virtueTrait {
	return []virtueTrait{
		{
			id: "honesty", description: "Honesty and truthfulness", weight: 0.9,
			positive:     contract.CompileKeywords([]string{"honest", "truthful", "transparent", "sincere", "candid"}),
			vices:        contract.CompileKeywords([]string{"dishonest", "deceitful", "lying", "fraudulent"}),
			posPatterns:  contract.CompilePatterns([]string{`\btell\w*\s+the\s+truth\b`, `\badmit\w*\s+(my|our|the)\s+mistake`}),
			vicePatterns: contract.CompilePatterns([]string{`\bhide\s+the\s+truth\b`, `\bfake\s+(records?|results?)\b`}),
		},
		{
			id: "courage", description: "Courage in the face of risk", weight: 0.7,
			positive:     contract.CompileKeywords([]string{"courage", "courageous", "brave", "bravely"}),
			vices:        contract.CompileKeywords([]string{"coward", "cowardice", "flee"}),
			posPatterns:  contract.CompilePatterns([]string{`\bdespite\s+the\s+(risk|danger)`, `\bspeak\w*\s+out\s+against\b`, `\bstand\w*\s+up\s+(for|to|against)\b`}),
			vicePatterns: contract.CompilePatterns([]string{`\btoo\s+afraid\s+to\b`, `\brun\w*\s+away\s+from\b`}),
		},
		{
			id: "compassion", description: "Compassion and care for others", weight: 0.8,
			positive:     contract.CompileKeywords([]string{"help", "helping", "care", "caring", "kind", "kindness", "comfort", "support"}),
			vices:        contract.CompileKeywords([]string{"cruel", "cruelty", "callous", "neglect"}),
			posPatterns:  contract.CompilePatterns([]string{`\bhelp\w*\s+(someone|others|people)\b`, `\brelieve\w*\s+\w+\s+suffering\b`}),
			vicePatterns: contract.CompilePatterns([]string{`\bignore\w*\s+\w+\s+suffering\b`, `\bmock\w*\s+\w+\s+pain\b`}),
		},
		{
			id: "justice", description: "Justice and fair treatment", weight: 0.9,
			positive:     contract.CompileKeywords([]string{"fair", "fairness", "equitable", "impartial"}),
			vices:        contract.CompileKeywords([]string{"unfair", "unjust", "discriminate", "discrimination", "biased"}),
			posPatterns:  contract.CompilePatterns([]string{`\btreat\w*\s+\w+\s+fairly\b`, `\bequal\s+treatment\b`}),
			vicePatterns: contract.CompilePatterns([]string{`\bdeny\w*\s+\w+\s+rights\b`, `\bfavor\w*\s+\w+\s+unfairly\b`}),
		},
		{
			id: "temperance", description: "Temperance and self-restraint", weight: 0.6,
			positive:     contract.CompileKeywords([]string{"moderate", "moderation", "restraint", "balanced", "self-control"}),
			vices:        contract.CompileKeywords([]string{"excessive", "greedy", "greed", "indulgent", "reckless"}),
			posPatterns:  contract.CompilePatterns([]string{`\bshow\w*\s+restraint\b`, `\bin\s+moderation\b`}),
			vicePatterns: contract.CompilePatterns([]string{`\bas\s+much\s+as\s+possible\s+for\s+myself\b`, `\bwithout\s+any\s+limits?\b`}),
		},
		{
			id: "practical_wisdom", description: "Practical wisdom in deliberation", weight: 0.8,
			positive:     contract.CompileKeywords([]string{"wise", "wisely", "prudent", "thoughtful", "deliberate"}),
			vices:        contract.CompileKeywords([]string{"foolish", "rash", "shortsighted", "impulsive"}),
			posPatterns:  contract.CompilePatterns([]string{`\bweigh\w*\s+the\s+(options|consequences)\b`, `\bconsider\w*\s+the\s+(consequences|alternatives)\b`, `\binformed\s+decision\b`}),
			vicePatterns: contract.CompilePatterns([]string{`\bwithout\s+thinking\b`, `\bon\s+a\s+whim\b`}),
		},
	}
}

// 美德合规评估；kwargs带agent_id时同步更新该agent的信誉记录
func (e *Engine) CheckCompliance(action string, kwargs map[string]interface{}) map[string]interface{} {
	clean := contract.Sanitize(action)
	if clean == "" {
		return contract.FailClosed("empty or non-text action description")
	}
	text := strings.ToLower(clean)

	signals := make([]traitSignal, 0)
	weightSum, weightedVirtue, weightedVice := 0.0, 0.0, 0.0
	for _, tr := range e.traits {
		vScore := 0.2 * float64(contract.CountMatches(text, tr.positive))
		vScore += 0.3 * float64(contract.CountMatches(text, tr.posPatterns))
		vScore = util.Clamp(vScore, 0, 1)
		cScore := 0.2 * float64(contract.CountMatches(text, tr.vices))
		cScore += 0.3 * float64(contract.CountMatches(text, tr.vicePatterns))
		cScore = util.Clamp(cScore, 0, 1)
		if vScore == 0 && cScore == 0 {
			continue
		}
		signals = append(signals, traitSignal{
			Id:          tr.id,
			VirtueScore: vScore,
			ViceScore:   cScore,
			NetScore:    vScore - cScore,
		})
		weightSum += tr.weight
		weightedVirtue += tr.weight * vScore
		weightedVice += tr.weight * cScore
	}

	netVirtueScore := 0.0
	if weightSum > 0 {
		netVirtueScore = (weightedVirtue - weightedVice) / weightSum
	}

	var res map[string]interface{}
	switch {
	case netVirtueScore > 0.2:
		res = map[string]interface{}{
			"compliant":    true,
			"confidence":   util.Clamp(0.6+netVirtueScore, 0, 0.9),
			"reasoning":    fmt.Sprintf("action demonstrates virtue excellence (net score %.2f)", netVirtueScore),
			"rule_applied": topSignal(signals),
		}
	case netVirtueScore < -0.2:
		res = map[string]interface{}{
			"compliant":    false,
			"confidence":   util.Clamp(0.6-netVirtueScore, 0, 0.9),
			"reasoning":    fmt.Sprintf("action exhibits vice (net score %.2f)", netVirtueScore),
			"rule_applied": topSignal(signals),
		}
	default:
		res = map[string]interface{}{
			"compliant":    true,
			"confidence":   0.6,
			"reasoning":    fmt.Sprintf("mixed or weak virtue signals (net score %.2f)", netVirtueScore),
			"rule_applied": "golden_mean",
		}
	}
	res["net_virtue_score"] = netVirtueScore
	res["signals"] = signals

	if kwargs != nil {
		if agentId, ok := kwargs["agent_id"].(string); ok && agentId != "" {
			rec := e.updateReputation(agentId, signals)
			res["agent_reputation"] = rec.OverallReputation
		}
	}
	return res
}

// 返回信号最强的美德id，无信号时返回golden_mean
func topSignal(signals []traitSignal) string {
	best, bestAbs := "golden_mean", 0.0
	for _, s := range signals {
		abs := s.NetScore
		if abs < 0 {
			abs = -abs
		}
		if abs > bestAbs {
			bestAbs = abs
			best = s.Id
		}
	}
	return best
}

// 对有信号的美德做EMA更新：new = 0.9*old + 0.1*net
// 总体信誉 = clamp(0.5 + Σ(weight*score)/Σweight, 0, 1)
func (e *Engine) updateReputation(agentId string, signals []traitSignal) *meta.ReputationRecord {
	now := time.Now().Unix()
	rec, ok := e.records[agentId]
	if !ok {
		rec = &meta.ReputationRecord{
			AgentId:   agentId,
			Scores:    map[string]float64{},
			CreatedAt: now,
		}
		e.records[agentId] = rec
		log.Infof("[virtue] 首次评估，创建agent %s 的信誉记录", agentId)
	}
	for _, s := range signals {
		old := rec.Scores[s.Id]
		rec.Scores[s.Id] = (1-emaAlpha)*old + emaAlpha*s.NetScore
	}
	weightSum, weighted := 0.0, 0.0
	for _, tr := range e.traits {
		weightSum += tr.weight
		weighted += tr.weight * rec.Scores[tr.id]
	}
	rec.OverallReputation = util.Clamp(0.5+weighted/weightSum, 0, 1)
	rec.EvaluationCount++
	rec.UpdatedAt = now
	return rec
}

// 中庸之道评估：强度不足为缺失之恶，过度为过剩之恶
func (e *Engine) AssessGoldenMean(virtueName string, intensity float64) map[string]interface{} {
	intensity = util.Clamp(intensity, 0, 1)
	var classification, reasoning string
	switch {
	case intensity < 0.4:
		classification = "deficiency_vice"
		reasoning = fmt.Sprintf("intensity %.2f falls short of the virtuous mean for %s", intensity, virtueName)
	case intensity <= 0.7:
		classification = "virtuous_mean"
		reasoning = fmt.Sprintf("intensity %.2f lies within the virtuous mean for %s", intensity, virtueName)
	default:
		classification = "excess_vice"
		reasoning = fmt.Sprintf("intensity %.2f exceeds the virtuous mean for %s", intensity, virtueName)
	}
	return map[string]interface{}{
		"virtue":         virtueName,
		"intensity":      intensity,
		"classification": classification,
		"reasoning":      reasoning,
		"rule_applied":   "golden_mean",
	}
}

// 按总体信誉降序返回前limit个agent
func (e *Engine) ReputationLeaderboard(limit int) []meta.ReputationRecord {
	board := make([]meta.ReputationRecord, 0, len(e.records))
	for _, rec := range e.records {
		board = append(board, *rec)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].OverallReputation != board[j].OverallReputation {
			return board[i].OverallReputation > board[j].OverallReputation
		}
		return board[i].AgentId < board[j].AgentId
	})
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board
}

// DAO治理读取agent信誉的入口；未知agent按中性0.5处理
func (e *Engine) OverallReputation(agentId string) (float64, bool) {
	rec, ok := e.records[agentId]
	if !ok {
		return 0.5, false
	}
	return rec.OverallReputation, true
}

func (e *Engine) ApplicableRules() []meta.RuleDescriptor {
	rules := make([]meta.RuleDescriptor, 0, len(e.traits))
	for _, tr := range e.traits {
		rules = append(rules, meta.RuleDescriptor{
			Id:          tr.id,
			Description: tr.description,
			Weight:      tr.weight,
			Category:    "virtue",
		})
	}
	return rules
}
