package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/cloudflare/cfssl/log"
	"github.com/eolbcV2/chain"
	"github.com/eolbcV2/config"
	"github.com/eolbcV2/contract/dao"
	"github.com/eolbcV2/contract/deontic"
	"github.com/eolbcV2/contract/teleological"
	"github.com/eolbcV2/contract/virtue"
	"github.com/eolbcV2/network"
	"github.com/eolbcV2/storage"
	"github.com/eolbcV2/util"
)

func main() {
	nodeCount := flag.Int("n", 3, "number of co-located nodes")
	listen := flag.String("l", ":8545", "listen address for the query api")
	dbPath := flag.String("db", "", "optional leveldb path for chain snapshots")
	redisAddr := flag.String("redis", "", "optional redis address for snapshot publishing")
	flag.Parse()

	nw := network.NewNetwork()
	for i := 1; i <= *nodeCount; i++ {
		name := fmt.Sprintf("node%d", i)
		bc := chain.NewBlockchain()
		// 四个规则引擎同名部署，保证各节点上地址一致
		virtueEngine := virtue.New()
		bc.DeployContract("deontic", deontic.New())
		bc.DeployContract("virtue", virtueEngine)
		bc.DeployContract("teleological", teleological.New(teleological.NewOracleClient(config.GetString("oracle.url"))))
		bc.DeployContract("dao", dao.New(virtueEngine))
		nw.AddNode(name, bc)
	}
	log.Infof("启动%d节点网络，难度=%d", *nodeCount, config.GetInt("chain.difficulty"))

	// 演示流程：评估、挖矿、同步、共识读取
	node1, _ := nw.GetNode("node1")
	deonticAddr := util.ContractAddress("deontic")
	res, err := node1.CallContract(deonticAddr, "CheckCompliance", map[string]interface{}{
		"action_description": "I will tell the truth to help someone make an informed decision",
	}, "alice")
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("道义评估结果: %+v", res)

	if block := node1.MineBlock("node1"); block != nil {
		log.Infof("封存区块 #%d hash=%s", block.Index, block.Hash)
	}
	nw.SyncNodes()

	consensus, err := nw.GetConsensusResult(deonticAddr, "CheckCompliance", map[string]interface{}{
		"action_description": "I will lie to customers about our product's capabilities",
	}, "alice")
	if err != nil {
		log.Error(err)
	} else {
		log.Infof("共识评估结果: %+v", consensus)
	}

	if *dbPath != "" {
		store, err := storage.OpenSnapshotStore(*dbPath)
		if err == nil {
			defer store.Close()
			for _, name := range nw.NodeNames() {
				bc, _ := nw.GetNode(name)
				_ = store.SaveSnapshot(name, bc.ToDict())
			}
			log.Infof("链快照已写入 %s", *dbPath)
		}
	}
	if *redisAddr != "" {
		publisher := storage.NewRedisPublisher(*redisAddr)
		defer publisher.Close()
		ctx := context.Background()
		for _, name := range nw.NodeNames() {
			bc, _ := nw.GetNode(name)
			_ = publisher.PublishSnapshot(ctx, name, bc.ToDict())
		}
		log.Infof("链快照已发布到redis %s", *redisAddr)
	}

	log.Infof("查询接口监听 %s", *listen)
	if err := http.ListenAndServe(*listen, network.NewRouter(nw)); err != nil {
		log.Fatal(err)
	}
}
