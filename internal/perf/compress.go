package perf

import (
	"bytes"
	"encoding/json"
	"strings"
)

// timeKeySuffixes 命中这些后缀的字符串字段按时间戳处理，
// 输出时去掉尾部的 "Z"（与既有客户端的解析习惯保持一致）。
var timeKeySuffixes = []string{"_at", "_date", "_until", "_from", "_login", "_worn"}

// JSONBody 将任意可序列化值转为精简后的通用 JSON 树：
// 去除 null 字段，时间戳字段去掉尾部 Z。dropEmpty 打开时
// （客户端显式要求 compact=true）额外深度丢弃空对象与空数组；
// 默认保留空容器，空列表页仍然带着 items 键。
func JSONBody(v any, dropEmpty bool) any {
	tree, ok := jsonTree(v)
	if !ok {
		return v
	}
	cleaned, keep := compact(tree, "", dropEmpty)
	if !keep {
		return map[string]any{}
	}
	return cleaned
}

func jsonTree(v any) (any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, false
	}
	return tree, true
}

// compact 自底向上清理节点；第二个返回值为 false 表示节点应被丢弃。
func compact(node any, key string, dropEmpty bool) (any, bool) {
	switch val := node.(type) {
	case nil:
		return nil, false
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if cleaned, keep := compact(child, k, dropEmpty); keep {
				out[k] = cleaned
			}
		}
		if dropEmpty && len(out) == 0 {
			return nil, false
		}
		return out, true
	case []any:
		out := make([]any, 0, len(val))
		for _, child := range val {
			if cleaned, keep := compact(child, "", dropEmpty); keep {
				out = append(out, cleaned)
			}
		}
		if dropEmpty && len(out) == 0 {
			return nil, false
		}
		return out, true
	case string:
		if isTimeKey(key) {
			return strings.TrimSuffix(val, "Z"), true
		}
		return val, true
	default:
		return val, true
	}
}

// StripKeys 深度去掉命中键名的字段，用于移动端投影：
// 仪表盘默认剔除首屏用不到的重字段，full=true 时跳过。
func StripKeys(v any, keys ...string) any {
	tree, ok := jsonTree(v)
	if !ok {
		return v
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	return stripKeys(tree, drop)
}

func stripKeys(node any, drop map[string]bool) any {
	switch val := node.(type) {
	case map[string]any:
		for k, child := range val {
			if drop[k] {
				delete(val, k)
				continue
			}
			val[k] = stripKeys(child, drop)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = stripKeys(child, drop)
		}
		return val
	default:
		return val
	}
}

func isTimeKey(key string) bool {
	if key == "" {
		return false
	}
	for _, suffix := range timeKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
