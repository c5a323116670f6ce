package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// jsonColumnType 嵌入式JSON列的数据库类型
func jsonColumnType(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "LONGTEXT"
	}
	return "TEXT"
}

func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonScan(src interface{}, dst interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column source %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// GormDataType 实现 schema.GormDataTypeInterface
func (IDSet) GormDataType() string { return "text" }

func (IDSet) GormDBDataType(db *gorm.DB, _ *schema.Field) string { return jsonColumnType(db) }

func (CommentList) GormDataType() string { return "text" }

func (CommentList) GormDBDataType(db *gorm.DB, _ *schema.Field) string { return jsonColumnType(db) }

func (ShareList) GormDataType() string { return "text" }

func (ShareList) GormDBDataType(db *gorm.DB, _ *schema.Field) string { return jsonColumnType(db) }
