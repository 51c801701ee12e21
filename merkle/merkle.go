package merkle

import (
	"github.com/eolbcV2/common"
	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
)

// 根据交易hash列表计算merkle root：两两拼接再hash，逐层归约
// 奇数个叶子时复制最后一个
func ComputeMerkleRoot(txHashes []string) string {
	if len(txHashes) == 0 {
		return common.GenesisPrevHash
	}
	level := make([]string, len(txHashes))
	copy(level, txHashes)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, util.CalculateHash([]byte(level[i]+level[i+1])))
		}
		level = next
	}
	return level[0]
}

// 根据区块内的交易计算merkle root
func ComputeBlockMerkleRoot(txs []meta.Transaction) string {
	hashes := make([]string, 0, len(txs))
	for _, tx := range txs {
		h := tx.Hash
		if h == "" {
			h = util.CalculateTxHash(tx)
		}
		hashes = append(hashes, h)
	}
	return ComputeMerkleRoot(hashes)
}
