package chain

import (
	"time"

	"github.com/eolbcV2/meta"
	"github.com/eolbcV2/util"
	"github.com/google/uuid"
)

// 简化的gas计量：固定基数加参数个数
func gasFor(args map[string]interface{}) int {
	return 10 + 2*len(args)
}

// 构造一笔交易并计算其hash
func NewTransaction(from, to, method string, args map[string]interface{}, result interface{}, txType int) meta.Transaction {
	tx := meta.Transaction{
		Id:        uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		From:      from,
		To:        to,
		Method:    method,
		Args:      args,
		Result:    result,
		GasUsed:   gasFor(args),
		Type:      txType,
	}
	tx.Hash = util.CalculateTxHash(tx)
	return tx
}
