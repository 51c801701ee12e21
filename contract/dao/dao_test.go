package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 测试用信誉源
type fakeReputation struct {
	reps map[string]float64
}

func (f *fakeReputation) OverallReputation(agentId string) (float64, bool) {
	rep, ok := f.reps[agentId]
	if !ok {
		return 0.5, false
	}
	return rep, true
}

func newTestEngine() *Engine {
	return New(&fakeReputation{reps: map[string]float64{
		"alice":   0.8,
		"bob":     0.6,
		"carol":   0.4,
		"mallory": 0.1,
	}})
}

func TestProposeRejectsDuplicateId(t *testing.T) {
	e := newTestEngine()
	_, err := e.ProposeRule("p1", "add a new duty", "alice")
	assert.NoError(t, err)
	_, err = e.ProposeRule("p1", "something else", "bob")
	assert.Error(t, err)
}

func TestProposeRejectsLowReputation(t *testing.T) {
	e := newTestEngine()
	_, err := e.ProposeRule("p1", "add a new duty", "mallory")
	assert.Error(t, err)
}

func TestUnknownAgentGetsNeutralReputation(t *testing.T) {
	e := newTestEngine()
	_, err := e.ProposeRule("p1", "add a new duty", "stranger")
	assert.NoError(t, err)
}

func TestDoubleVoteOnlyCountsOnce(t *testing.T) {
	e := newTestEngine()
	_, err := e.ProposeRule("p1", "add a new duty", "alice")
	assert.NoError(t, err)

	res, err := e.Vote("p1", "bob", true)
	assert.NoError(t, err)
	votesFor := res["votes_for"].(float64)

	_, err = e.Vote("p1", "bob", true)
	assert.Error(t, err)

	p, _ := e.GetProposal("p1")
	assert.Equal(t, votesFor, p.VotesFor)
	assert.Equal(t, 0.6, p.VotesFor)
}

func TestEnactBelowQuorumStaysActive(t *testing.T) {
	e := newTestEngine()
	_, _ = e.ProposeRule("p1", "add a new duty", "alice")
	_, _ = e.Vote("p1", "carol", true)  // 0.4 for
	_, _ = e.Vote("p1", "alice", false) // 0.8 against

	res, err := e.Enact("p1")
	assert.NoError(t, err)
	assert.False(t, res["enacted"].(bool))
	p, _ := e.GetProposal("p1")
	assert.True(t, p.Active)
}

func TestEnactAtQuorumDeactivates(t *testing.T) {
	e := newTestEngine()
	_, _ = e.ProposeRule("p1", "add a new duty", "alice")
	_, _ = e.Vote("p1", "alice", true)  // 0.8 for
	_, _ = e.Vote("p1", "bob", true)    // 0.6 for
	_, _ = e.Vote("p1", "carol", false) // 0.4 against

	res, err := e.Enact("p1")
	assert.NoError(t, err)
	assert.True(t, res["enacted"].(bool))
	p, _ := e.GetProposal("p1")
	assert.False(t, p.Active)

	// 已颁布的规则描述登记在引擎状态里，不向其他引擎传播
	desc, ok := e.GetState("enacted:p1")
	assert.True(t, ok)
	assert.Equal(t, "add a new duty", desc.(string))

	// 非活动提案不再接受投票和再次颁布
	_, err = e.Vote("p1", "stranger", true)
	assert.Error(t, err)
	_, err = e.Enact("p1")
	assert.Error(t, err)
}

func TestEnactWithoutVotesFails(t *testing.T) {
	e := newTestEngine()
	_, _ = e.ProposeRule("p1", "add a new duty", "alice")
	_, err := e.Enact("p1")
	assert.Error(t, err)
}

func TestDispatchThroughRegistry(t *testing.T) {
	e := newTestEngine()
	_, err := e.Invoke("ProposeRule", map[string]interface{}{
		"proposal_id": "p9",
		"description": "tighten the harm duty",
		"proposer_id": "alice",
	})
	assert.NoError(t, err)
	_, err = e.Invoke("Vote", map[string]interface{}{
		"proposal_id": "p9",
		"agent_id":    "bob",
		"vote_for":    true,
	})
	assert.NoError(t, err)
	res, err := e.Invoke("Enact", map[string]interface{}{"proposal_id": "p9"})
	assert.NoError(t, err)
	assert.True(t, res.(map[string]interface{})["enacted"].(bool))
}

// 治理引擎和其他规则引擎一样通过注册表暴露合规评估
func TestCheckComplianceDispatchesThroughRegistry(t *testing.T) {
	e := newTestEngine()
	res, err := e.Invoke("CheckCompliance", map[string]interface{}{
		"action_description": "raise the enactment quorum to two thirds",
	})
	assert.NoError(t, err)
	verdict := res.(map[string]interface{})
	assert.True(t, verdict["compliant"].(bool))
	assert.Equal(t, "governance_neutral", verdict["rule_applied"].(string))

	res, err = e.Invoke("CheckCompliance", map[string]interface{}{"action_description": ""})
	assert.NoError(t, err)
	assert.Equal(t, "input_validation", res.(map[string]interface{})["rule_applied"].(string))
}
