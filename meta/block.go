package meta

// 交易：一次合约部署或合约调用的不可变记录
// hash计算时排除Sign字段（只存储签名，不做验签）
type Transaction struct {
	Id        string                 `json:"id"`
	Timestamp int64                  `json:"timestamp"`
	From      string                 `json:"from"`   // 交易发起者
	To        string                 `json:"to"`     // 目标合约地址
	Method    string                 `json:"method"` // 被调用的方法
	Args      map[string]interface{} `json:"args"`
	Result    interface{}            `json:"result"`
	GasUsed   int                    `json:"gas_used"`
	Type      int                    `json:"type"`
	PublicKey string                 `json:"public_key"`
	Sign      string                 `json:"sign"`
	Hash      string                 `json:"hash"`
}

// 区块：封存后不再修改
type Block struct {
	Index      int           `json:"index"`
	Timestamp  int64         `json:"timestamp"`
	TX         []Transaction `json:"transactions"`
	PrevHash   string        `json:"previous_hash"`
	Nonce      int           `json:"nonce"`
	Hash       string        `json:"hash"`
	MerkleRoot string        `json:"merkle_root"`
}

// 交易的map投影，供调用方自行序列化
func (tx Transaction) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"id":         tx.Id,
		"timestamp":  tx.Timestamp,
		"from":       tx.From,
		"to":         tx.To,
		"method":     tx.Method,
		"args":       tx.Args,
		"result":     tx.Result,
		"gas_used":   tx.GasUsed,
		"type":       tx.Type,
		"public_key": tx.PublicKey,
		"sign":       tx.Sign,
		"hash":       tx.Hash,
	}
}

// 区块的map投影
func (b Block) ToDict() map[string]interface{} {
	txs := make([]map[string]interface{}, 0, len(b.TX))
	for _, tx := range b.TX {
		txs = append(txs, tx.ToDict())
	}
	return map[string]interface{}{
		"index":         b.Index,
		"timestamp":     b.Timestamp,
		"transactions":  txs,
		"previous_hash": b.PrevHash,
		"nonce":         b.Nonce,
		"hash":          b.Hash,
		"merkle_root":   b.MerkleRoot,
	}
}
