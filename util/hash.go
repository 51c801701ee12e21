package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/meta"
)

// 计算hash摘要，返回十六进制字符串
func CalculateHash(msg []byte) string {
	h := sha256.Sum256(msg)
	return hex.EncodeToString(h[:])
}

// 计算交易hash，序列化时排除签名和hash本身
func CalculateTxHash(tx meta.Transaction) string {
	tx.Sign = ""
	tx.Hash = ""
	jt, err := json.Marshal(tx)
	if err != nil {
		log.Errorf("[CalculateTxHash] marshal failed: %v", err)
		return ""
	}
	return CalculateHash(jt)
}

// 区块头：参与区块hash计算的字段
type blockHeader struct {
	Index      int    `json:"index"`
	Timestamp  int64  `json:"timestamp"`
	PrevHash   string `json:"previous_hash"`
	MerkleRoot string `json:"merkle_root"`
	Nonce      int    `json:"nonce"`
}

// 计算区块hash：hash({index, timestamp, previous_hash, merkle_root, nonce})
func CalculateBlockHash(b meta.Block) string {
	header := blockHeader{
		Index:      b.Index,
		Timestamp:  b.Timestamp,
		PrevHash:   b.PrevHash,
		MerkleRoot: b.MerkleRoot,
		Nonce:      b.Nonce,
	}
	jb, _ := json.Marshal(header)
	return CalculateHash(jb)
}

// 合约地址："0x" + hash(name)的前40个十六进制字符
// 同名合约地址确定且幂等，不做实例冲突检查
func ContractAddress(name string) string {
	return "0x" + CalculateHash([]byte(name))[:40]
}
