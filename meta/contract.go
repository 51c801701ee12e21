package meta

// 规则描述：每个规则引擎通过ApplicableRules()对外公布自己的规则目录
type RuleDescriptor struct {
	Id          string  `json:"id"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Category    string  `json:"category"`
}

// 信誉记录：由美德引擎按agent维护
type ReputationRecord struct {
	AgentId           string             `json:"agent_id"`
	Scores            map[string]float64 `json:"per_virtue_scores"`
	OverallReputation float64            `json:"overall_reputation"`
	EvaluationCount   int                `json:"evaluation_count"`
	CreatedAt         int64              `json:"created_at"`
	UpdatedAt         int64              `json:"updated_at"`
}

// 预测记录：由结果引擎维护，容量上限见common.PredictionHistoryCap
type Prediction struct {
	PredictionId     string             `json:"prediction_id"`
	ActionSnippet    string             `json:"action_snippet"`
	PredictedUtility float64            `json:"predicted_utility"`
	PredictedScores  map[string]float64 `json:"predicted_category_scores"`
	Timestamp        int64              `json:"timestamp"`
	HasActual        bool               `json:"has_actual"`
	ActualUtility    float64            `json:"actual_utility"`
	Accuracy         float64            `json:"accuracy"`
}

// 治理提案
// 终态只有一个：Enact达到法定比例后Active置false，不存在过期和撤回
type Proposal struct {
	Id           string          `json:"id"`
	Description  string          `json:"description"`
	ProposerId   string          `json:"proposer_id"`
	VotesFor     float64         `json:"votes_for"`
	VotesAgainst float64         `json:"votes_against"`
	Voters       map[string]bool `json:"voters"`
	Active       bool            `json:"active"`
	CreatedAt    int64           `json:"created_at"`
}
