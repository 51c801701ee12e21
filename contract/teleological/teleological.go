package teleological

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/common"
	"github.com/eolbcV2/config"
	"github.com/eolbcV2/contract"
	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
	"github.com/google/uuid"
)

// 聚合方式
const (
	aggUtilitarian       = "utilitarian"       // score × 受影响人数
	aggPriority          = "priority"          // score × √受影响人数
	aggMaximin           = "maximin"           // 负分×2，正分×0.8
	aggIntergenerational = "intergenerational" // 负分×1.5，正分×1.2
)

// 结果类别
type category struct {
	id          string
	description string
	weight      float64
	aggregation string
	positive    []*regexp.Regexp
	negative    []*regexp.Regexp
	posPatterns []*regexp.Regexp
	negPatterns []*regexp.Regexp
}

var _ contract.RuleEngine = (*Engine)(nil)

// 目的论结果引擎：六个加权结果类别 + 预测历史 + 可选外部验证门
type Engine struct {
	*contract.Base
	categories  []category
	oracle      *OracleClient
	predictions []meta.Prediction // FIFO，容量见config teleological.history_cap
	historyCap  int
}

func New(oracle *OracleClient) *Engine {
	e := &Engine{
		Base:       contract.NewBase("teleological"),
		categories: buildCategories(),
		oracle:     oracle,
		historyCap: config.GetInt("teleological.history_cap"),
	}
	e.Register("CheckCompliance", func(args map[string]interface{}) (interface{}, error) {
		return e.CheckCompliance(contract.ActionFromArgs(args), args), nil
	})
	e.Register("UpdateActualOutcome", func(args map[string]interface{}) (interface{}, error) {
		predictionId, _ := args["prediction_id"].(string)
		actualUtility, _ := args["actual_utility"].(float64)
		actualOutcomes := map[string]float64{}
		if raw, ok := args["actual_outcomes"].(map[string]interface{}); ok {
			for k, v := range raw {
				if f, ok := v.(float64); ok {
					actualOutcomes[k] = f
				}
			}
		}
		return e.UpdateActualOutcome(predictionId, actualOutcomes, actualUtility)
	})
	e.Register("GetPredictionAccuracy", func(args map[string]interface{}) (interface{}, error) {
		return e.PredictionAccuracy(), nil
	})
	e.Register("SimulateOutcomeScenario", func(args map[string]interface{}) (interface{}, error) {
		base, _ := args["base_action"].(string)
		mods := make([]string, 0)
		if raw, ok := args["modifications"].([]string); ok {
			mods = raw
		} else if raw, ok := args["modifications"].([]interface{}); ok {
			for _, m := range raw {
				if s, ok := m.(string); ok {
					mods = append(mods, s)
				}
			}
		}
		return e.SimulateOutcomeScenario(base, mods, args), nil
	})
	e.Register("GetApplicableRules", func(args map[string]interface{}) (interface{}, error) {
		return e.ApplicableRules(), nil
	})
	return e
}

func buildCategories() []category {
	return []category{
		{
			id: "wellbeing", description: "Impact on health and wellbeing", weight: 1.0, aggregation: aggUtilitarian,
			positive:    contract.CompileKeywords([]string{"benefit", "improve", "health", "happiness", "wellbeing", "cure", "protect"}),
			negative:    contract.CompileKeywords([]string{"suffering", "pain", "illness", "death", "toxic", "injury"}),
			posPatterns: contract.CompilePatterns([]string{`\bsave\w*\s+lives\b`, `\bimprove\w*\s+(health|lives|quality\s+of\s+life)\b`}),
			negPatterns: contract.CompilePatterns([]string{`\bcause\w*\s+(suffering|illness|death)\b`, `\bexpose\w*\s+\w+\s+to\s+(harm|danger)\b`}),
		},
		{
			id: "autonomy", description: "Impact on individual autonomy", weight: 0.8, aggregation: aggPriority,
			positive:    contract.CompileKeywords([]string{"empower", "choice", "freedom", "consent", "independence"}),
			negative:    contract.CompileKeywords([]string{"restrict", "surveillance", "coerce", "censor"}),
			posPatterns: contract.CompilePatterns([]string{`\bexpand\w*\s+\w+\s+(choices|options)\b`}),
			negPatterns: contract.CompilePatterns([]string{`\bwithout\s+(their\s+)?consent\b`, `\blimit\w*\s+\w+\s+freedom\b`}),
		},
		{
			id: "justice", description: "Distributional fairness of outcomes", weight: 0.9, aggregation: aggMaximin,
			positive:    contract.CompileKeywords([]string{"fair", "equal", "equitable", "inclusive"}),
			negative:    contract.CompileKeywords([]string{"unfair", "discriminate", "exclude", "exploit"}),
			posPatterns: contract.CompilePatterns([]string{`\bequal\s+access\b`, `\bfair\s+distribution\b`}),
			negPatterns: contract.CompilePatterns([]string{`\bexploit\w*\s+(the\s+)?(poor|weak|vulnerable)\b`}),
		},
		{
			id: "knowledge", description: "Impact on knowledge and understanding", weight: 0.7, aggregation: aggUtilitarian,
			positive:    contract.CompileKeywords([]string{"educate", "research", "learn", "knowledge", "innovation", "develop", "technology"}),
			negative:    contract.CompileKeywords([]string{"misinform", "suppress", "obscure"}),
			posPatterns: contract.CompilePatterns([]string{`\badvance\w*\s+(science|research|understanding)\b`}),
			negPatterns: contract.CompilePatterns([]string{`\bspread\w*\s+(false|misleading)\s+information\b`}),
		},
		{
			id: "environment", description: "Environmental and intergenerational impact", weight: 0.9, aggregation: aggIntergenerational,
			positive:    contract.CompileKeywords([]string{"sustainable", "renewable", "conserve", "restore", "recycle"}),
			negative:    contract.CompileKeywords([]string{"pollute", "pollution", "toxic", "contaminate", "deforest", "emissions"}),
			posPatterns: contract.CompilePatterns([]string{`\breduce\w*\s+(pollution|emissions|waste)\b`, `\bclean\s+energy\b`}),
			negPatterns: contract.CompilePatterns([]string{`\b(release|dump|spill)\w*\s+(toxic|hazardous)\b`, `\bdestroy\w*\s+(habitats?|ecosystems?)\b`}),
		},
		{
			id: "social_cohesion", description: "Impact on trust and social cohesion", weight: 0.8, aggregation: aggPriority,
			positive:    contract.CompileKeywords([]string{"community", "cooperate", "cooperation", "trust", "solidarity"}),
			negative:    contract.CompileKeywords([]string{"divide", "conflict", "isolate", "distrust"}),
			posPatterns: contract.CompilePatterns([]string{`\bbuild\w*\s+trust\b`, `\bbring\w*\s+people\s+together\b`}),
			negPatterns: contract.CompilePatterns([]string{`\bturn\w*\s+\w+\s+against\b`, `\bsow\w*\s+division\b`}),
		},
	}
}

// 从kwargs解析评估参数，缺省：1人、中期、确定性1.0
func evalParams(kwargs map[string]interface{}) (affected float64, horizon string, certainty float64) {
	affected, horizon, certainty = 1, common.MediumTerm, 1.0
	if kwargs == nil {
		return
	}
	switch v := kwargs["affected_parties"].(type) {
	case int:
		affected = float64(v)
	case float64:
		affected = v
	}
	if affected < 1 {
		affected = 1
	}
	if h, ok := kwargs["time_horizon"].(string); ok && h != "" {
		horizon = h
	}
	if c, ok := kwargs["certainty_level"].(float64); ok {
		certainty = util.Clamp(c, 0, 1)
	}
	return
}

func horizonMultiplier(horizon string) float64 {
	switch horizon {
	case common.ShortTerm:
		return 0.8
	case common.LongTerm:
		return 1.3
	default:
		return 1.0
	}
}

// 按类别的聚合方式调整净分
func aggregate(net float64, aggregation string, affected float64) float64 {
	switch aggregation {
	case aggUtilitarian:
		return net * affected
	case aggPriority:
		if affected > 1 {
			return net * math.Sqrt(affected)
		}
		return net
	case aggMaximin:
		if net < 0 {
			return net * 2
		}
		return net * 0.8
	case aggIntergenerational:
		if net < 0 {
			return net * 1.5
		}
		return net * 1.2
	default:
		return net
	}
}

// 结果合规评估；kwargs可带affected_parties、time_horizon、certainty_level、pvb_data_hash
func (e *Engine) CheckCompliance(action string, kwargs map[string]interface{}) map[string]interface{} {
	res, _ := e.evaluate(action, kwargs, true)
	return res
}

func (e *Engine) evaluate(action string, kwargs map[string]interface{}, record bool) (map[string]interface{}, float64) {
	clean := contract.Sanitize(action)
	if clean == "" {
		return contract.FailClosed("empty or non-text action description"), 0
	}
	text := strings.ToLower(clean)
	affected, horizon, certainty := evalParams(kwargs)

	// 外部验证门：给定data hash但验证不通过时，全类别净分强制为-1.0
	evidence := make([]string, 0)
	forceNegative := false
	if kwargs != nil {
		if dataHash, ok := kwargs["pvb_data_hash"].(string); ok && dataHash != "" {
			if !e.oracle.VerifyData(dataHash) {
				forceNegative = true
				evidence = append(evidence, fmt.Sprintf("external verification failed for data hash %s; all outcomes forced negative", dataHash))
			} else {
				evidence = append(evidence, fmt.Sprintf("data hash %s verified by external oracle", dataHash))
			}
		}
	}

	weightSum, weightedTotal := 0.0, 0.0
	categoryScores := map[string]float64{}
	for _, c := range e.categories {
		pos := 0.2*float64(contract.CountMatches(text, c.positive)) + 0.3*float64(contract.CountMatches(text, c.posPatterns))
		neg := 0.2*float64(contract.CountMatches(text, c.negative)) + 0.3*float64(contract.CountMatches(text, c.negPatterns))
		net := util.Clamp(pos, 0, 1) - util.Clamp(neg, 0, 1)
		if forceNegative {
			net = -1.0
		}
		adjusted := aggregate(net, c.aggregation, affected) * horizonMultiplier(horizon)
		weighted := adjusted * c.weight * certainty
		categoryScores[c.id] = net
		weightSum += c.weight
		weightedTotal += weighted
	}
	normalizedUtility := weightedTotal / weightSum

	confidence := math.Min(0.9, (0.5+0.4*math.Min(math.Abs(normalizedUtility), 1.0))*certainty)
	var res map[string]interface{}
	switch {
	case normalizedUtility > 0.1:
		res = map[string]interface{}{
			"compliant":    true,
			"confidence":   confidence,
			"reasoning":    fmt.Sprintf("expected outcomes are net positive (utility %.2f over %s horizon)", normalizedUtility, horizon),
			"rule_applied": "positive_utility",
		}
	case normalizedUtility < -0.1:
		res = map[string]interface{}{
			"compliant":    false,
			"confidence":   confidence,
			"reasoning":    fmt.Sprintf("expected outcomes are net negative (utility %.2f over %s horizon)", normalizedUtility, horizon),
			"rule_applied": "negative_utility",
		}
	default:
		res = map[string]interface{}{
			"compliant":    true,
			"confidence":   confidence,
			"reasoning":    fmt.Sprintf("expected outcomes are neutral (utility %.2f)", normalizedUtility),
			"rule_applied": "neutral_utility",
		}
	}
	res["normalized_utility"] = normalizedUtility
	res["category_scores"] = categoryScores
	if len(evidence) > 0 {
		res["evidence"] = evidence
	}

	if record {
		snippet := clean
		if len(snippet) > 80 {
			snippet = snippet[:80]
		}
		pred := meta.Prediction{
			PredictionId:     uuid.New().String(),
			ActionSnippet:    snippet,
			PredictedUtility: normalizedUtility,
			PredictedScores:  categoryScores,
			Timestamp:        time.Now().Unix(),
		}
		e.predictions = append(e.predictions, pred)
		if len(e.predictions) > e.historyCap {
			e.predictions = e.predictions[len(e.predictions)-e.historyCap:]
			log.Infof("[teleological] 预测历史已满，淘汰最早的记录")
		}
		res["prediction_id"] = pred.PredictionId
	}
	return res, normalizedUtility
}

// 用实际结果回填预测，计算预测准确度
func (e *Engine) UpdateActualOutcome(predictionId string, actualOutcomes map[string]float64, actualUtility float64) (map[string]interface{}, error) {
	for i := range e.predictions {
		if e.predictions[i].PredictionId != predictionId {
			continue
		}
		p := &e.predictions[i]
		errAbs := math.Abs(p.PredictedUtility - actualUtility)
		p.HasActual = true
		p.ActualUtility = actualUtility
		p.Accuracy = math.Max(0, 1-errAbs)
		categoryErrors := map[string]float64{}
		for id, actual := range actualOutcomes {
			if predicted, ok := p.PredictedScores[id]; ok {
				categoryErrors[id] = math.Abs(predicted - actual)
			}
		}
		return map[string]interface{}{
			"prediction_id":     predictionId,
			"predicted_utility": p.PredictedUtility,
			"actual_utility":    actualUtility,
			"error":             errAbs,
			"accuracy":          p.Accuracy,
			"category_errors":   categoryErrors,
		}, nil
	}
	return nil, errors.New("unknown prediction id: " + predictionId)
}

// 已回填预测的聚合准确度指标
func (e *Engine) PredictionAccuracy() map[string]interface{} {
	reconciled, sum := 0, 0.0
	for _, p := range e.predictions {
		if p.HasActual {
			reconciled++
			sum += p.Accuracy
		}
	}
	avg := 0.0
	if reconciled > 0 {
		avg = sum / float64(reconciled)
	}
	return map[string]interface{}{
		"total_predictions":      len(e.predictions),
		"reconciled_predictions": reconciled,
		"average_accuracy":       avg,
	}
}

// 情景模拟：评估基础动作和各修改变体，推荐效用最高者
// 模拟评估不写入预测历史
func (e *Engine) SimulateOutcomeScenario(baseAction string, modifications []string, kwargs map[string]interface{}) map[string]interface{} {
	baseRes, baseUtility := e.evaluate(baseAction, kwargs, false)
	type scenario struct {
		Modification string  `json:"modification"`
		Utility      float64 `json:"utility"`
		Compliant    bool    `json:"compliant"`
	}
	scenarios := make([]scenario, 0, len(modifications))
	best, bestUtility := "base action unchanged", baseUtility
	for _, mod := range modifications {
		res, utility := e.evaluate(baseAction+" "+mod, kwargs, false)
		compliant, _ := res["compliant"].(bool)
		scenarios = append(scenarios, scenario{Modification: mod, Utility: utility, Compliant: compliant})
		if utility > bestUtility {
			best, bestUtility = mod, utility
		}
	}
	return map[string]interface{}{
		"base_action":         baseAction,
		"base_utility":        baseUtility,
		"base_compliant":      baseRes["compliant"],
		"scenarios":           scenarios,
		"recommended":         best,
		"recommended_utility": bestUtility,
	}
}

func (e *Engine) ApplicableRules() []meta.RuleDescriptor {
	rules := make([]meta.RuleDescriptor, 0, len(e.categories))
	for _, c := range e.categories {
		rules = append(rules, meta.RuleDescriptor{
			Id:          c.id,
			Description: c.description,
			Weight:      c.weight,
			Category:    "teleological/" + c.aggregation,
		})
	}
	return rules
}

// 预测历史快照（只读副本）
func (e *Engine) Predictions() []meta.Prediction {
	out := make([]meta.Prediction, len(e.predictions))
	copy(out, e.predictions)
	return out
}
