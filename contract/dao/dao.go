package dao

import (
	"fmt"
	"sort"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/config"
	"github.com/eolbcV2/contract"
	"github.com/eolbcV2/meta"
)

// 治理引擎读取agent信誉的来源（由美德引擎实现）
type ReputationSource interface {
	OverallReputation(agentId string) (float64, bool)
}

var _ contract.RuleEngine = (*Engine)(nil)

// DAO治理引擎：信誉加权投票修订规则目录
type Engine struct {
	*contract.Base
	reputation    ReputationSource
	proposals     map[string]*meta.Proposal
	quorum        float64
	minProposeRep float64
}

func New(reputation ReputationSource) *Engine {
	e := &Engine{
		Base:          contract.NewBase("dao"),
		reputation:    reputation,
		proposals:     map[string]*meta.Proposal{},
		quorum:        config.GetFloat64("dao.quorum"),
		minProposeRep: config.GetFloat64("dao.min_proposer_reputation"),
	}
	e.Register("CheckCompliance", func(args map[string]interface{}) (interface{}, error) {
		return e.CheckCompliance(contract.ActionFromArgs(args), args), nil
	})
	e.Register("ProposeRule", func(args map[string]interface{}) (interface{}, error) {
		id, _ := args["proposal_id"].(string)
		description, _ := args["description"].(string)
		proposerId, _ := args["proposer_id"].(string)
		return e.ProposeRule(id, description, proposerId)
	})
	e.Register("Vote", func(args map[string]interface{}) (interface{}, error) {
		id, _ := args["proposal_id"].(string)
		agentId, _ := args["agent_id"].(string)
		voteFor, _ := args["vote_for"].(bool)
		return e.Vote(id, agentId, voteFor)
	})
	e.Register("Enact", func(args map[string]interface{}) (interface{}, error) {
		id, _ := args["proposal_id"].(string)
		return e.Enact(id)
	})
	e.Register("GetProposal", func(args map[string]interface{}) (interface{}, error) {
		id, _ := args["proposal_id"].(string)
		p, ok := e.proposals[id]
		if !ok {
			return nil, fmt.Errorf("unknown proposal: %s", id)
		}
		return *p, nil
	})
	e.Register("ListProposals", func(args map[string]interface{}) (interface{}, error) {
		return e.ListProposals(), nil
	})
	e.Register("GetApplicableRules", func(args map[string]interface{}) (interface{}, error) {
		return e.ApplicableRules(), nil
	})
	return e
}

// 读取agent信誉；未知agent按中性0.5处理（数据质量问题，不报错）
func (e *Engine) agentReputation(agentId string) float64 {
	if e.reputation == nil {
		return 0.5
	}
	rep, known := e.reputation.OverallReputation(agentId)
	if !known {
		log.Infof("[dao] agent %s 没有信誉记录，按中性0.5计", agentId)
	}
	return rep
}

// 提交提案：提案id重复或提案人信誉不足为API误用，返回错误
func (e *Engine) ProposeRule(id, description, proposerId string) (map[string]interface{}, error) {
	if id == "" {
		return nil, fmt.Errorf("proposal id must not be empty")
	}
	if _, exists := e.proposals[id]; exists {
		return nil, fmt.Errorf("proposal %s already exists", id)
	}
	rep := e.agentReputation(proposerId)
	if rep < e.minProposeRep {
		return nil, fmt.Errorf("proposer %s reputation %.2f below minimum %.2f", proposerId, rep, e.minProposeRep)
	}
	p := &meta.Proposal{
		Id:          id,
		Description: description,
		ProposerId:  proposerId,
		Voters:      map[string]bool{},
		Active:      true,
		CreatedAt:   time.Now().Unix(),
	}
	e.proposals[id] = p
	log.Infof("[dao] 新提案 %s，提案人 %s（信誉%.2f）", id, proposerId, rep)
	return map[string]interface{}{"proposal_id": id, "active": true}, nil
}

// 投票：每个agent对同一提案至多投一次，票重为agent的总体信誉
func (e *Engine) Vote(proposalId, agentId string, voteFor bool) (map[string]interface{}, error) {
	p, ok := e.proposals[proposalId]
	if !ok {
		return nil, fmt.Errorf("unknown proposal: %s", proposalId)
	}
	if !p.Active {
		return nil, fmt.Errorf("proposal %s is no longer active", proposalId)
	}
	if p.Voters[agentId] {
		return nil, fmt.Errorf("agent %s already voted on proposal %s", agentId, proposalId)
	}
	weight := e.agentReputation(agentId)
	if voteFor {
		p.VotesFor += weight
	} else {
		p.VotesAgainst += weight
	}
	p.Voters[agentId] = true
	return map[string]interface{}{
		"proposal_id":   proposalId,
		"vote_weight":   weight,
		"votes_for":     p.VotesFor,
		"votes_against": p.VotesAgainst,
	}, nil
}

// 颁布：赞成比例达到法定比例时提案转为非活动态
// 注意：颁布不会传播到其他规则引擎，只在本引擎状态中登记
func (e *Engine) Enact(proposalId string) (map[string]interface{}, error) {
	p, ok := e.proposals[proposalId]
	if !ok {
		return nil, fmt.Errorf("unknown proposal: %s", proposalId)
	}
	if !p.Active {
		return nil, fmt.Errorf("proposal %s is no longer active", proposalId)
	}
	total := p.VotesFor + p.VotesAgainst
	if total <= 0 {
		return nil, fmt.Errorf("proposal %s has no votes", proposalId)
	}
	ratio := p.VotesFor / total
	if ratio < e.quorum {
		log.Infof("[dao] 提案 %s 赞成比例%.2f未达法定比例%.2f，保持活动态", proposalId, ratio, e.quorum)
		return map[string]interface{}{
			"proposal_id":    proposalId,
			"enacted":        false,
			"approval_ratio": ratio,
			"active":         true,
		}, nil
	}
	p.Active = false
	e.SetState("enacted:"+proposalId, p.Description)
	log.Infof("[dao] 提案 %s 已颁布（赞成比例%.2f）", proposalId, ratio)
	return map[string]interface{}{
		"proposal_id":    proposalId,
		"enacted":        true,
		"approval_ratio": ratio,
		"active":         false,
	}, nil
}

// 按id排序返回全部提案
func (e *Engine) ListProposals() []meta.Proposal {
	out := make([]meta.Proposal, 0, len(e.proposals))
	for _, p := range e.proposals {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (e *Engine) GetProposal(id string) (*meta.Proposal, bool) {
	p, ok := e.proposals[id]
	return p, ok
}

func (e *Engine) ApplicableRules() []meta.RuleDescriptor {
	return []meta.RuleDescriptor{
		{
			Id:          "reputation_weighted_quorum",
			Description: "Proposals are enacted when reputation-weighted approval reaches quorum",
			Weight:      e.quorum,
			Category:    "governance",
		},
	}
}

// 治理引擎同样暴露合规评估：用提案目录无法评估文本，按中性处理
func (e *Engine) CheckCompliance(action string, kwargs map[string]interface{}) map[string]interface{} {
	clean := contract.Sanitize(action)
	if clean == "" {
		return contract.FailClosed("empty or non-text action description")
	}
	return map[string]interface{}{
		"compliant":    true,
		"confidence":   0.5,
		"reasoning":    "governance engine does not score action text; submit a proposal instead",
		"rule_applied": "governance_neutral",
	}
}
