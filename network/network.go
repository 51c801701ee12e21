package network

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/chain"
	"github.com/eolbcV2/meta"
)

// 多节点网络模拟器：节点共进程，没有真实p2p
// 节点遍历一律按名称排序，保证共识读取的确定性
type Network struct {
	mu    sync.Mutex
	nodes map[string]*chain.Blockchain
}

func NewNetwork() *Network {
	return &Network{nodes: map[string]*chain.Blockchain{}}
}

func (n *Network) AddNode(name string, bc *chain.Blockchain) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nodes[name] = bc
}

func (n *Network) GetNode(name string) (*chain.Blockchain, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	bc, ok := n.nodes[name]
	return bc, ok
}

// 排序后的节点名列表
func (n *Network) NodeNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.nodes))
	for name := range n.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 向所有节点广播交易，尽力而为：单节点拒收不回滚其他节点
// 返回接收成功的节点数
func (n *Network) BroadcastTransaction(tx meta.Transaction) int {
	accepted := 0
	for _, name := range n.NodeNames() {
		bc, _ := n.GetNode(name)
		if bc.AddTransaction(tx) {
			accepted++
		} else {
			log.Errorf("[network] 节点 %s 拒收交易 %s", name, tx.Id)
		}
	}
	return accepted
}

// 朴素的最长有效链同步：有效链中最长者覆盖所有更短的节点
// 等长不处理，不考虑拜占庭节点；返回被更新的节点数
func (n *Network) SyncNodes() int {
	names := n.NodeNames()
	var best []meta.Block
	for _, name := range names {
		bc, _ := n.GetNode(name)
		if !bc.IsChainValid() {
			log.Errorf("[network] 节点 %s 的链无效，同步时忽略", name)
			continue
		}
		blocks := bc.GetBlocks()
		if len(blocks) > len(best) {
			best = blocks
		}
	}
	if best == nil {
		return 0
	}
	updated := 0
	for _, name := range names {
		bc, _ := n.GetNode(name)
		if bc.GetChainLength() < len(best) && bc.ReplaceChain(best) {
			updated++
			log.Infof("[network] 节点 %s 同步到长度%d", name, len(best))
		}
	}
	return updated
}

// 把结果序列化为规范JSON，作为频次统计的key
func canonicalKey(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// 共识读取：对每个节点执行相同调用并聚合
// 布尔结果按严格多数表决；其他结果取最高频值，频次相同时取规范JSON最小者
func (n *Network) GetConsensusResult(address, method string, params map[string]interface{}, sender string) (interface{}, error) {
	type answer struct {
		value interface{}
		key   string
	}
	answers := make([]answer, 0)
	allBool, trueCount := true, 0
	for _, name := range n.NodeNames() {
		bc, _ := n.GetNode(name)
		res, err := bc.CallContract(address, method, params, sender)
		if err != nil {
			log.Errorf("[network] 节点 %s 调用失败: %v", name, err)
			continue
		}
		answers = append(answers, answer{value: res, key: canonicalKey(res)})
		if b, ok := res.(bool); ok {
			if b {
				trueCount++
			}
		} else {
			allBool = false
		}
	}
	if len(answers) == 0 {
		return nil, errors.New("no node produced a result")
	}

	if allBool {
		return trueCount > len(answers)/2, nil
	}

	counts := map[string]int{}
	for _, a := range answers {
		counts[a.key]++
	}
	bestKey, bestCount := "", -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < bestKey) {
			bestKey, bestCount = key, count
		}
	}
	for _, a := range answers {
		if a.key == bestKey {
			return a.value, nil
		}
	}
	return answers[0].value, nil
}
