package chain_test

import (
	"testing"

	"github.com/eolbcV2/chain"
	"github.com/eolbcV2/contract/dao"
	"github.com/eolbcV2/contract/deontic"
	"github.com/eolbcV2/contract/teleological"
	"github.com/eolbcV2/contract/virtue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 四个规则引擎经由账本部署、调用、封块的整体流程
func TestFullEvaluationPipeline(t *testing.T) {
	bc := chain.NewBlockchain()
	virtueEngine := virtue.New()
	deonticAddr := bc.DeployContract("deontic", deontic.New())
	virtueAddr := bc.DeployContract("virtue", virtueEngine)
	teleoAddr := bc.DeployContract("teleological", teleological.New(nil))
	daoAddr := bc.DeployContract("dao", dao.New(virtueEngine))

	// 道义评估：说谎应违反do_not_lie
	res, err := bc.CallContract(deonticAddr, "CheckCompliance", map[string]interface{}{
		"action_description": "I will lie to customers about our product's capabilities",
	}, "alice")
	require.NoError(t, err)
	verdict := res.(map[string]interface{})
	assert.False(t, verdict["compliant"].(bool))
	assert.Equal(t, "do_not_lie", verdict["rule_applied"].(string))

	// 美德评估积累alice的信誉
	_, err = bc.CallContract(virtueAddr, "CheckCompliance", map[string]interface{}{
		"action_description": "I will be honest and truthful and help people fairly",
		"agent_id":           "alice",
	}, "alice")
	require.NoError(t, err)

	// 结果评估
	res, err = bc.CallContract(teleoAddr, "CheckCompliance", map[string]interface{}{
		"action_description": "Develop renewable energy technology to reduce pollution",
		"affected_parties":   1000,
		"time_horizon":       "long_term",
		"certainty_level":    0.8,
	}, "alice")
	require.NoError(t, err)
	assert.True(t, res.(map[string]interface{})["compliant"].(bool))

	// 治理：alice信誉高于0.3（首次评估后高于0.5），可以提案
	_, err = bc.CallContract(daoAddr, "ProposeRule", map[string]interface{}{
		"proposal_id": "p1",
		"description": "add a duty of care",
		"proposer_id": "alice",
	}, "alice")
	require.NoError(t, err)

	// 封块后全部调用都进入历史
	block := bc.MineBlock("miner-1")
	require.NotNil(t, block)
	assert.True(t, bc.IsChainValid())
	assert.Equal(t, 0, bc.PendingCount())

	history := bc.GetContractHistory(deonticAddr)
	assert.Len(t, history, 2) // 部署 + 1次评估
	assert.Equal(t, "deploy", history[0].Method)
	assert.Equal(t, "CheckCompliance", history[1].Method)
}
