package config

import (
	"time"

	"github.com/eolbcV2/common"
	viper2 "github.com/spf13/viper"
)

var v *viper2.Viper

func init() {
	v = viper2.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config/")
	v.AddConfigPath(".")

	// 没有配置文件时使用默认值运行
	v.SetDefault("chain.difficulty", common.DefaultDifficulty)
	v.SetDefault("contract.max_input_length", common.DefaultMaxInputLength)
	v.SetDefault("deontic.window", common.EvaluationWindow)
	v.SetDefault("teleological.history_cap", common.PredictionHistoryCap)
	v.SetDefault("dao.quorum", common.DefaultQuorum)
	v.SetDefault("dao.min_proposer_reputation", common.MinProposerReputation)
	v.SetDefault("oracle.url", "")
	v.SetDefault("oracle.timeout", common.DefaultOracleTimeout)

	_ = v.ReadInConfig()
}

func GetInt(key string) int {
	return v.GetInt(key)
}

func GetFloat64(key string) float64 {
	return v.GetFloat64(key)
}

func GetString(key string) string {
	return v.GetString(key)
}

// 以秒为单位的配置项转为Duration
func GetSeconds(key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}
