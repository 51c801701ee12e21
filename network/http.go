package network

import (
	"encoding/json"
	"net/http"

	"github.com/cloudflare/cfssl/log"
	"github.com/gorilla/mux"
)

const BadRequest = "Request Param Invalid"

// 返回请求参数错误
func BadRequestResponse(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusBadRequest)
	_, _ = writer.Write([]byte(BadRequest))
}

func writeJSON(writer http.ResponseWriter, v interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(v); err != nil {
		log.Errorf("[http] 响应编码失败: %v", err)
	}
}

// 只读查询路由，供本地检视链与交易池；不提供任何修改入口
func NewRouter(n *Network) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/nodes", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, n.NodeNames())
	}).Methods("GET")

	withNode := func(handler func(w http.ResponseWriter, name string)) func(http.ResponseWriter, *http.Request) {
		return func(w http.ResponseWriter, req *http.Request) {
			name := mux.Vars(req)["name"]
			if _, ok := n.GetNode(name); !ok {
				BadRequestResponse(w)
				return
			}
			handler(w, name)
		}
	}

	r.HandleFunc("/nodes/{name}/chain", withNode(func(w http.ResponseWriter, name string) {
		bc, _ := n.GetNode(name)
		writeJSON(w, bc.ToDict())
	})).Methods("GET")

	r.HandleFunc("/nodes/{name}/chain/valid", withNode(func(w http.ResponseWriter, name string) {
		bc, _ := n.GetNode(name)
		writeJSON(w, map[string]interface{}{"valid": bc.IsChainValid(), "length": bc.GetChainLength()})
	})).Methods("GET")

	r.HandleFunc("/nodes/{name}/pending", withNode(func(w http.ResponseWriter, name string) {
		bc, _ := n.GetNode(name)
		writeJSON(w, bc.GetPending())
	})).Methods("GET")

	r.HandleFunc("/nodes/{name}/contracts", withNode(func(w http.ResponseWriter, name string) {
		bc, _ := n.GetNode(name)
		writeJSON(w, bc.ContractRegistry())
	})).Methods("GET")

	return r
}
