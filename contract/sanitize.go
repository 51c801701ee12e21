package contract

import (
	"strings"
	"unicode/utf8"

	"github.com/eolbcV2/config"
)

// 合约输入清洗：去掉注入风险字符并截断到最大长度
func Sanitize(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '&', '"', '\'', '\x00':
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)
	maxLen := config.GetInt("contract.max_input_length")
	if maxLen > 0 && len(cleaned) > maxLen {
		// 截断点回退到rune边界，避免把多字节字符切成无效UTF-8
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}
	return cleaned
}

// 空输入或非文本输入时的失败关闭结果：评估管道对坏数据不抛错，总是返回结果
func FailClosed(reasoning string) map[string]interface{} {
	return map[string]interface{}{
		"compliant":    false,
		"confidence":   0.0,
		"reasoning":    reasoning,
		"rule_applied": "input_validation",
	}
}

// 从调用参数中取出动作描述文本；非字符串按空处理
func ActionFromArgs(args map[string]interface{}) string {
	if args == nil {
		return ""
	}
	raw, ok := args["action_description"]
	if !ok {
		return ""
	}
	action, ok := raw.(string)
	if !ok {
		return ""
	}
	return action
}
