package corridor

import "github.com/corridor-hub/corridor-hub/internal/geo"

// 边属性位掩码，与客户端约定的编码保持一致。
const (
	FlagToll     = 1
	FlagFerry    = 2
	FlagUnsealed = 4
)

// Node 是路网图中的一个节点，id 取自边表的 from_id/to_id。
type Node struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PackEdge 是 pack 内的精简边：端点节点 id、代价与属性位。
type PackEdge struct {
	A         int64 `json:"a"`
	B         int64 `json:"b"`
	DistanceM int   `json:"distance_m"`
	DurationS int   `json:"duration_s"`
	Flags     int   `json:"flags"`
}

// Pack 是一次走廊抽取的完整结果。入缓存后不可变；
// 抽取逻辑变更必须提升 algo_version，旧行只会被跳过不会被误用。
type Pack struct {
	CorridorKey    string     `json:"corridor_key"`
	RouteKey       string     `json:"route_key"`
	Profile        string     `json:"profile"`
	AlgoVersion    string     `json:"algo_version"`
	BBox           geo.BBox   `json:"bbox"`
	Nodes          []Node     `json:"nodes"`
	Edges          []PackEdge `json:"edges"`
	EdgesTruncated bool       `json:"edges_truncated"`
	CreatedAt      string     `json:"created_at"`
}

// Empty 表示查询区域完全落在路网覆盖之外（零节点零边）。
// 这是合法结果，与截断、与错误都要区分开。
func (p *Pack) Empty() bool {
	return len(p.Edges) == 0 && len(p.Nodes) == 0
}
