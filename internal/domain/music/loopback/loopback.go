package loopback

import (
	"context"
	"strings"
	"sync"

	"musicbox-server-golang/internal/domain/music/inter"

	"github.com/spf13/cast"
)

// Resolver 回环曲库解析器
// 基于配置里的静态目录做精确匹配（忽略大小写），用于开发调试和测试
type Resolver struct {
	mu      sync.RWMutex
	catalog map[string]string
}

// NewResolver 创建回环解析器，config["catalog"]是查询词到文件的映射
func NewResolver(config map[string]interface{}) *Resolver {
	catalog := map[string]string{}
	if raw, ok := config["catalog"]; ok {
		for query, file := range cast.ToStringMapString(raw) {
			catalog[strings.ToLower(query)] = file
		}
	}
	return &Resolver{catalog: catalog}
}

// AddEntry 追加目录条目，供测试构造场景
func (r *Resolver) AddEntry(query, file string) {
	r.mu.Lock()
	r.catalog[strings.ToLower(query)] = file
	r.mu.Unlock()
}

func (r *Resolver) Resolve(ctx context.Context, query string, language string) (*inter.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	file, ok := r.catalog[strings.ToLower(strings.TrimSpace(query))]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &inter.Match{
		Query:       query,
		MatchedFile: file,
		Confidence:  1.0,
	}, nil
}
