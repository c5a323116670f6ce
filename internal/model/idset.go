package model

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
)

// IDSet 有序去重的用户ID集合，以JSON数组持久化
type IDSet []uint

// NewIDSet 由任意ID列表构建集合
func NewIDSet(ids ...uint) IDSet {
	s := IDSet{}
	for _, id := range ids {
		s, _ = s.Add(id)
	}
	return s
}

func (s IDSet) search(id uint) (int, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= id })
	return i, i < len(s) && s[i] == id
}

// Contains 判断是否包含
func (s IDSet) Contains(id uint) bool {
	_, ok := s.search(id)
	return ok
}

// Add 加入ID，已存在时返回 false
func (s IDSet) Add(id uint) (IDSet, bool) {
	i, ok := s.search(id)
	if ok {
		return s, false
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = id
	return s, true
}

// Remove 移除ID，不存在时返回 false
func (s IDSet) Remove(id uint) (IDSet, bool) {
	i, ok := s.search(id)
	if !ok {
		return s, false
	}
	return append(s[:i], s[i+1:]...), true
}

// Toggle 翻转成员关系，返回翻转后是否为成员
func (s IDSet) Toggle(id uint) (IDSet, bool) {
	if next, removed := s.Remove(id); removed {
		return next, false
	}
	next, _ := s.Add(id)
	return next, true
}

// Len 集合大小
func (s IDSet) Len() int { return len(s) }

// normalize 排序去重，兼容手工写入的数据
func (s IDSet) normalize() IDSet {
	if sort.SliceIsSorted(s, func(i, j int) bool { return s[i] < s[j] }) {
		dedup := true
		for i := 1; i < len(s); i++ {
			if s[i] == s[i-1] {
				dedup = false
				break
			}
		}
		if dedup {
			return s
		}
	}
	return NewIDSet(s...)
}

// MarshalJSON 空集合序列化为 []
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]uint(s))
}

// UnmarshalJSON 反序列化并规范化
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uint
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = IDSet(ids).normalize()
	return nil
}

// Value 实现 driver.Valuer
func (s IDSet) Value() (driver.Value, error) {
	return jsonValue(s)
}

// Scan 实现 sql.Scanner
func (s *IDSet) Scan(src interface{}) error {
	*s = IDSet{}
	return jsonScan(src, s)
}
