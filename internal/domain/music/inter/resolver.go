package inter

import "context"

// Match 曲库解析结果
type Match struct {
	Query       string  `json:"query"`
	MatchedFile string  `json:"matched_file"`
	Confidence  float64 `json:"confidence"`
}

// Resolver 曲库解析接口
// 由外部的模糊/音形匹配模块实现；Resolve是一次阻塞调用，
// 调用方必须传入带超时的context
// 未命中时返回(nil, nil)，只有真正的故障才返回error
type Resolver interface {
	Resolve(ctx context.Context, query string, language string) (*Match, error)
}
