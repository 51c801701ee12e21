package chain

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/eolbcV2/common"
	"github.com/eolbcV2/contract"
	"github.com/eolbcV2/merkle"
	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
)

// 测试用的最小合约
func echoContract(name string) contract.Contract {
	b := contract.NewBase(name)
	b.Register("Echo", func(args map[string]interface{}) (interface{}, error) {
		return args["msg"], nil
	})
	return b
}

func TestGenesisInvariant(t *testing.T) {
	bc := NewBlockchain()
	blocks := bc.GetBlocks()
	if len(blocks) != 1 {
		t.Fatalf("新账本应只有创世区块，得到%d", len(blocks))
	}
	g := blocks[0]
	if g.Index != 0 {
		t.Errorf("创世区块index应为0: %d", g.Index)
	}
	if g.PrevHash != strings.Repeat("0", 64) {
		t.Errorf("创世区块前驱hash应为64个0: %s", g.PrevHash)
	}
}

func TestDeployContractDeterministic(t *testing.T) {
	bc := NewBlockchain()
	a1 := bc.DeployContract("deontic", echoContract("deontic"))
	a2 := bc.DeployContract("deontic", echoContract("deontic"))
	if a1 != a2 {
		t.Errorf("同名合约地址应确定: %s != %s", a1, a2)
	}
	if !strings.HasPrefix(a1, "0x") || len(a1) != 42 {
		t.Errorf("地址格式不符: %s", a1)
	}
}

func TestCallContractErrors(t *testing.T) {
	bc := NewBlockchain()
	addr := bc.DeployContract("echo", echoContract("echo"))

	if _, err := bc.CallContract("0xdeadbeef", "Echo", nil, "alice"); err == nil {
		t.Error("未知地址应返回LookupError")
	} else if _, ok := err.(*LookupError); !ok {
		t.Errorf("期望LookupError，得到 %T", err)
	}

	if _, err := bc.CallContract(addr, "NoSuchMethod", nil, "alice"); err == nil {
		t.Error("未知方法应返回CapabilityError")
	} else if _, ok := err.(*contract.CapabilityError); !ok {
		t.Errorf("期望CapabilityError，得到 %T", err)
	}
}

func TestMineBlockSealsPending(t *testing.T) {
	bc := NewBlockchain()
	addr := bc.DeployContract("echo", echoContract("echo"))
	if _, err := bc.CallContract(addr, "Echo", map[string]interface{}{"msg": "hi"}, "alice"); err != nil {
		t.Fatal(err)
	}
	if bc.PendingCount() != 2 { // 部署交易 + 调用交易
		t.Fatalf("交易池应有2笔交易: %d", bc.PendingCount())
	}

	block := bc.MineBlock("miner-1")
	if block == nil {
		t.Fatal("非空交易池挖矿不应返回nil")
	}
	spew.Dump(block.Hash)

	if bc.PendingCount() != 0 {
		t.Error("挖矿成功后交易池应清空")
	}
	if !strings.HasPrefix(block.Hash, "00") {
		t.Errorf("区块hash应有2个前导0: %s", block.Hash)
	}
	if block.MerkleRoot != merkle.ComputeBlockMerkleRoot(block.TX) {
		t.Error("merkle root应可由交易hash独立复现")
	}
	if block.Hash != util.CalculateBlockHash(*block) {
		t.Error("区块hash应可由区块头复现")
	}
}

func TestMineBlockEmptyPoolIsNoop(t *testing.T) {
	bc := NewBlockchain()
	if block := bc.MineBlock("miner-1"); block != nil {
		t.Error("空交易池挖矿应返回nil")
	}
	if bc.GetChainLength() != 1 {
		t.Error("空挖矿不应增长链")
	}
}

func TestChainValidAndTamperDetection(t *testing.T) {
	bc := NewBlockchain()
	addr := bc.DeployContract("echo", echoContract("echo"))
	_, _ = bc.CallContract(addr, "Echo", map[string]interface{}{"msg": "hi"}, "alice")
	bc.MineBlock("miner-1")

	if !bc.IsChainValid() {
		t.Fatal("刚挖出的链应有效")
	}

	// 篡改已存区块的字段
	bc.chain[1].Timestamp++
	if bc.IsChainValid() {
		t.Error("篡改timestamp后链应无效")
	}
	bc.chain[1].Timestamp--

	bc.chain[1].PrevHash = strings.Repeat("f", 64)
	if bc.IsChainValid() {
		t.Error("篡改前驱hash后链应无效")
	}
}

func TestAddTransactionValidation(t *testing.T) {
	bc := NewBlockchain()
	ok := bc.AddTransaction(meta.Transaction{Id: "", From: "alice"})
	if ok {
		t.Error("缺少id的交易应被丢弃")
	}
	ok = bc.AddTransaction(meta.Transaction{Id: "t1", From: ""})
	if ok {
		t.Error("缺少发起者的交易应被丢弃")
	}
	if bc.PendingCount() != 0 {
		t.Error("非法交易不应进池")
	}
	ok = bc.AddTransaction(NewTransaction("alice", "0xabc", "Echo", nil, nil, common.Invoke))
	if !ok || bc.PendingCount() != 1 {
		t.Error("合法交易应进池")
	}
}

func TestGetContractHistory(t *testing.T) {
	bc := NewBlockchain()
	addr := bc.DeployContract("echo", echoContract("echo"))
	other := bc.DeployContract("other", echoContract("other"))
	_, _ = bc.CallContract(addr, "Echo", map[string]interface{}{"msg": "one"}, "alice")
	_, _ = bc.CallContract(other, "Echo", map[string]interface{}{"msg": "noise"}, "bob")
	_, _ = bc.CallContract(addr, "Echo", map[string]interface{}{"msg": "two"}, "alice")
	bc.MineBlock("miner-1")

	history := bc.GetContractHistory(addr)
	if len(history) != 3 { // 1笔部署 + 2笔调用
		t.Fatalf("历史交易数不符: %d", len(history))
	}
	if history[0].Method != "deploy" {
		t.Error("历史应按链序返回，首笔为部署交易")
	}
	if history[1].Args["msg"] != "one" || history[2].Args["msg"] != "two" {
		t.Error("历史交易顺序不符")
	}
}

func TestContractRegistryListsMethods(t *testing.T) {
	bc := NewBlockchain()
	addr := bc.DeployContract("echo", echoContract("echo"))
	registry := bc.ContractRegistry()
	entry := registry[addr].(map[string]interface{})
	if entry["name"].(string) != "echo" {
		t.Errorf("注册表合约名不符: %v", entry["name"])
	}
	methods := entry["methods"].([]string)
	if !util.Contains(methods, "Echo") || !util.Contains(methods, "GetMetrics") {
		t.Errorf("注册表方法列表不全: %v", methods)
	}
}

func TestToDictProjection(t *testing.T) {
	bc := NewBlockchain()
	addr := bc.DeployContract("echo", echoContract("echo"))
	_, _ = bc.CallContract(addr, "Echo", map[string]interface{}{"msg": "hi"}, "alice")
	bc.MineBlock("miner-1")

	snapshot := bc.ToDict()
	if snapshot["length"].(int) != 2 {
		t.Errorf("投影长度不符: %v", snapshot["length"])
	}
	contracts := snapshot["contracts"].(map[string]interface{})
	if _, ok := contracts[addr]; !ok {
		t.Error("投影应包含合约注册表")
	}
}
