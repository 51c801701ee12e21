package contract

import "fmt"

// 合约未暴露被调用的方法时返回，属于API误用而非数据质量问题
type CapabilityError struct {
	Contract string
	Method   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("contract %s does not expose method %s", e.Contract, e.Method)
}
