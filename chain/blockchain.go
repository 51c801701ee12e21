package chain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/common"
	"github.com/eolbcV2/config"
	"github.com/eolbcV2/contract"
	"github.com/eolbcV2/merkle"
	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
)

// 合约地址未注册时返回，属于API误用
type LookupError struct {
	Address string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no contract deployed at address %s", e.Address)
}

// 账本核心：链、交易池、合约注册表
// 显式句柄，由调用方构造并持有，不使用全局单例
// 同一节点上的挖矿、同步与合约调用由内部互斥锁串行化
type Blockchain struct {
	mu         sync.Mutex
	chain      []meta.Block
	pending    []meta.Transaction
	contracts  map[string]contract.Contract
	difficulty int
}

func NewBlockchain() *Blockchain {
	bc := &Blockchain{
		contracts:  map[string]contract.Contract{},
		difficulty: config.GetInt("chain.difficulty"),
	}
	genesis := meta.Block{
		Index:      0,
		Timestamp:  time.Now().UnixNano(),
		PrevHash:   common.GenesisPrevHash,
		MerkleRoot: merkle.ComputeMerkleRoot(nil),
	}
	genesis.Hash = util.CalculateBlockHash(genesis)
	bc.chain = append(bc.chain, genesis)
	return bc
}

// 部署合约，返回确定性地址："0x" + hash(name)前40个十六进制字符
// 同名重复部署会覆盖注册表映射，历史交易仍引用旧实例产生的记录
func (bc *Blockchain) DeployContract(name string, inst contract.Contract) string {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	address := util.ContractAddress(name)
	if _, exists := bc.contracts[address]; exists {
		log.Infof("[chain] 合约名 %s 已被占用，覆盖地址 %s 的映射", name, address)
	}
	bc.contracts[address] = inst
	tx := NewTransaction(common.SystemSender, address, "deploy",
		map[string]interface{}{"name": name}, nil, common.Deploy)
	bc.pending = append(bc.pending, tx)
	log.Infof("[chain] 合约 %s 部署于 %s", name, address)
	return address
}

// 调用合约方法；成功后调用记录作为交易进入交易池
func (bc *Blockchain) CallContract(address, method string, params map[string]interface{}, sender string) (interface{}, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	inst, ok := bc.contracts[address]
	if !ok {
		return nil, &LookupError{Address: address}
	}
	result, err := inst.Invoke(method, params)
	if err != nil {
		return nil, err
	}
	tx := NewTransaction(sender, address, method, params, result, common.Invoke)
	bc.pending = append(bc.pending, tx)
	return result, nil
}

// 交易进池；格式不合法的交易丢弃并记日志，不是异常路径
func (bc *Blockchain) AddTransaction(tx meta.Transaction) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if tx.Id == "" || tx.From == "" {
		log.Errorf("[chain] 丢弃非法交易：id=%q from=%q", tx.Id, tx.From)
		return false
	}
	bc.pending = append(bc.pending, tx)
	return true
}

// 挖矿：把交易池全部交易封入新区块，工作量证明要求hash有difficulty个前导0
// 阻塞操作，没有超时和取消；交易池为空时返回nil
func (bc *Blockchain) MineBlock(minerId string) *meta.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if len(bc.pending) == 0 {
		log.Infof("[chain] 交易池为空，矿工 %s 无事可做", minerId)
		return nil
	}
	prev := bc.chain[len(bc.chain)-1]
	txs := make([]meta.Transaction, len(bc.pending))
	copy(txs, bc.pending)
	block := meta.Block{
		Index:     len(bc.chain),
		Timestamp: time.Now().UnixNano(),
		TX:        txs,
		PrevHash:  prev.Hash,
	}
	block.MerkleRoot = merkle.ComputeBlockMerkleRoot(block.TX)

	prefix := strings.Repeat("0", bc.difficulty)
	for {
		block.Hash = util.CalculateBlockHash(block)
		if strings.HasPrefix(block.Hash, prefix) {
			break
		}
		block.Nonce++
	}
	bc.chain = append(bc.chain, block)
	bc.pending = nil
	log.Infof("[chain] 矿工 %s 封存区块 #%d（%d笔交易，nonce=%d）", minerId, block.Index, len(block.TX), block.Nonce)
	return &block
}

// 从第1个区块起重算区块hash与前驱链接，首个不一致即返回false，不做修复
func (bc *Blockchain) IsChainValid() bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return isValid(bc.chain)
}

func isValid(blocks []meta.Block) bool {
	for i := 1; i < len(blocks); i++ {
		b := blocks[i]
		if b.Hash != util.CalculateBlockHash(b) {
			log.Errorf("[chain] 区块 #%d hash不一致", b.Index)
			return false
		}
		if b.PrevHash != blocks[i-1].Hash {
			log.Errorf("[chain] 区块 #%d 前驱hash断链", b.Index)
			return false
		}
		if b.MerkleRoot != merkle.ComputeBlockMerkleRoot(b.TX) {
			log.Errorf("[chain] 区块 #%d merkle root不可复现", b.Index)
			return false
		}
	}
	return true
}

func (bc *Blockchain) GetChainLength() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.chain)
}

// 链的只读副本
func (bc *Blockchain) GetBlocks() []meta.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]meta.Block, len(bc.chain))
	copy(out, bc.chain)
	return out
}

// 用更长的有效链整体替换本地链（最长有效链规则，由网络层调用）
func (bc *Blockchain) ReplaceChain(blocks []meta.Block) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if len(blocks) <= len(bc.chain) {
		return false
	}
	if !isValid(blocks) {
		log.Errorf("[chain] 拒绝替换为无效链")
		return false
	}
	next := make([]meta.Block, len(blocks))
	copy(next, blocks)
	bc.chain = next
	log.Infof("[chain] 本地链更新为长度%d", len(next))
	return true
}

// 按链序扫描指定合约地址的历史交易
func (bc *Blockchain) GetContractHistory(address string) []meta.Transaction {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	history := make([]meta.Transaction, 0)
	for _, b := range bc.chain {
		for _, tx := range b.TX {
			if tx.To == address {
				history = append(history, tx)
			}
		}
	}
	return history
}

func (bc *Blockchain) PendingCount() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.pending)
}

// 交易池的只读副本
func (bc *Blockchain) GetPending() []meta.Transaction {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]meta.Transaction, len(bc.pending))
	copy(out, bc.pending)
	return out
}

// 合约注册表投影：地址 → 名称与方法列表
func (bc *Blockchain) ContractRegistry() map[string]interface{} {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := map[string]interface{}{}
	for addr, inst := range bc.contracts {
		out[addr] = map[string]interface{}{
			"name":    inst.Name(),
			"methods": inst.Methods(),
		}
	}
	return out
}

// 账本整体的map投影，供调用方自行持久化
func (bc *Blockchain) ToDict() map[string]interface{} {
	blocks := bc.GetBlocks()
	pending := bc.GetPending()
	chainMaps := make([]map[string]interface{}, 0, len(blocks))
	for _, b := range blocks {
		chainMaps = append(chainMaps, b.ToDict())
	}
	pendingMaps := make([]map[string]interface{}, 0, len(pending))
	for _, tx := range pending {
		pendingMaps = append(pendingMaps, tx.ToDict())
	}
	return map[string]interface{}{
		"chain":     chainMaps,
		"pending":   pendingMaps,
		"contracts": bc.ContractRegistry(),
		"length":    len(blocks),
	}
}
