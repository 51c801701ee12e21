package storage

import (
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB快照库：账本本身只存在内存里，持久化是调用方的事
// 这里只负责把ToDict投影落盘和读回
type SnapshotStore struct {
	db *leveldb.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		log.Errorf("[storage] leveldb打开失败: %v", err)
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

func snapshotKey(nodeName string) []byte {
	return []byte("snapshot:" + nodeName)
}

// 保存某节点的账本投影
func (s *SnapshotStore) SaveSnapshot(nodeName string, snapshot map[string]interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := s.db.Put(snapshotKey(nodeName), data, nil); err != nil {
		log.Errorf("[storage] 快照写入失败: %v", err)
		return err
	}
	return nil
}

// 读回某节点的账本投影
func (s *SnapshotStore) LoadSnapshot(nodeName string) (map[string]interface{}, error) {
	data, err := s.db.Get(snapshotKey(nodeName), nil)
	if err != nil {
		return nil, err
	}
	snapshot := map[string]interface{}{}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
