package merkle

import (
	"testing"

	"github.com/eolbcV2/common"
	"github.com/eolbcV2/util"
)

func TestComputeMerkleRootEmpty(t *testing.T) {
	root := ComputeMerkleRoot(nil)
	if root != common.GenesisPrevHash {
		t.Errorf("空交易列表的merkle root应为全零，得到 %s", root)
	}
}

func TestComputeMerkleRootSingle(t *testing.T) {
	h := util.CalculateHash([]byte("tx-1"))
	root := ComputeMerkleRoot([]string{h})
	if root != h {
		t.Errorf("单笔交易的merkle root应等于交易hash本身")
	}
}

func TestComputeMerkleRootPairwise(t *testing.T) {
	h1 := util.CalculateHash([]byte("tx-1"))
	h2 := util.CalculateHash([]byte("tx-2"))
	want := util.CalculateHash([]byte(h1 + h2))
	root := ComputeMerkleRoot([]string{h1, h2})
	if root != want {
		t.Errorf("两笔交易的merkle root不符: got %s want %s", root, want)
	}
}

func TestComputeMerkleRootOddDuplicatesLast(t *testing.T) {
	h1 := util.CalculateHash([]byte("tx-1"))
	h2 := util.CalculateHash([]byte("tx-2"))
	h3 := util.CalculateHash([]byte("tx-3"))
	left := util.CalculateHash([]byte(h1 + h2))
	right := util.CalculateHash([]byte(h3 + h3))
	want := util.CalculateHash([]byte(left + right))
	root := ComputeMerkleRoot([]string{h1, h2, h3})
	if root != want {
		t.Errorf("奇数笔交易应复制最后一个叶子: got %s want %s", root, want)
	}
}

func TestComputeMerkleRootDeterministic(t *testing.T) {
	hashes := []string{
		util.CalculateHash([]byte("a")),
		util.CalculateHash([]byte("b")),
		util.CalculateHash([]byte("c")),
		util.CalculateHash([]byte("d")),
	}
	if ComputeMerkleRoot(hashes) != ComputeMerkleRoot(hashes) {
		t.Error("同样的输入应得到同样的merkle root")
	}
}
