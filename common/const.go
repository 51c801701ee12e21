package common

// 交易类型
const (
	Deploy int = iota // 0: 部署合约
	Invoke            // 1: 调用合约
)

// 创世区块的前驱hash（64个十六进制0）
const GenesisPrevHash = "0000000000000000000000000000000000000000000000000000000000000000"

// 挖矿默认难度：区块hash要求的前导十六进制0个数
const DefaultDifficulty = 2

// 合约输入的最大长度，超出部分截断
const DefaultMaxInputLength = 2000

// 道义引擎滚动统计窗口大小
const EvaluationWindow = 100

// 结果引擎预测历史容量（FIFO）
const PredictionHistoryCap = 500

// DAO治理默认法定比例
const DefaultQuorum = 0.51

// 提案人最低信誉值
const MinProposerReputation = 0.3

// 预言机默认超时（秒）
const DefaultOracleTimeout = 5

// 时间跨度
const (
	ShortTerm  = "short_term"
	MediumTerm = "medium_term"
	LongTerm   = "long_term"
)

// 部署交易的发起方
const SystemSender = "system"
