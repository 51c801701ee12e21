package teleological

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/config"
)

// 预言机验证响应
type verifyResponse struct {
	IsVerified bool `json:"is_verified"`
}

// 外部验证预言机客户端
// 任何非200响应、网络错误、超时都按验证失败处理（失败关闭）
type OracleClient struct {
	baseURL string
	client  *http.Client
}

func NewOracleClient(baseURL string) *OracleClient {
	return &OracleClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: config.GetSeconds("oracle.timeout")},
	}
}

// GET <oracle>/verify_pvb_data?data_hash=<hex> → {is_verified: bool}
func (c *OracleClient) VerifyData(dataHash string) bool {
	if c == nil || c.baseURL == "" {
		log.Info("[oracle] 未配置预言机地址，按验证失败处理")
		return false
	}
	reqURL := fmt.Sprintf("%s/verify_pvb_data?data_hash=%s", c.baseURL, url.QueryEscape(dataHash))
	resp, err := c.client.Get(reqURL)
	if err != nil {
		log.Errorf("[oracle] 请求失败: %v", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Errorf("[oracle] 非200响应: %d", resp.StatusCode)
		return false
	}
	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		log.Errorf("[oracle] 响应解析失败: %v", err)
		return false
	}
	return vr.IsVerified
}
