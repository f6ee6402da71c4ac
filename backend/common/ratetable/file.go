package ratetable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cpq/backend/common/pricing"
)

// LoadFile 从本地文件加载费率表，支持 .json / .yaml / .yml
func LoadFile(path string) (*pricing.RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Decode(data)
	case ".yaml", ".yml":
		var table pricing.RateTable
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil, ErrNoRateTable
		}
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("decode rate table yaml: %w", err)
		}
		return &table, nil
	}
	return nil, fmt.Errorf("unsupported rate table file: %s", path)
}

// FileFetcher 每次 Fetch 重新读取文件
type FileFetcher struct {
	Path string
}

// Fetch 实现 Fetcher
func (f FileFetcher) Fetch(_ context.Context) (*pricing.RateTable, error) {
	return LoadFile(f.Path)
}
