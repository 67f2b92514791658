package corridor

import (
	"sort"

	"github.com/corridor-hub/corridor-hub/internal/edges"
)

// candidate 是通过 buffer 过滤的边及其到路线的真实距离。
type candidate struct {
	edge  edges.Edge
	distM float64
}

// tieBucketM 把距离量化成 25m 的桶：同桶视为"距离打平"，
// 由道路等级决定先后。桶比较保证排序关系可传递。
const tieBucketM = 25.0

// highwayPriority 数值越大越优先保留。link 变体略低于主等级，
// 未知等级排在所有已知等级之后。
var highwayPriority = map[string]int{
	"motorway":       100,
	"motorway_link":  95,
	"trunk":          90,
	"trunk_link":     85,
	"primary":        80,
	"primary_link":   75,
	"secondary":      70,
	"secondary_link": 65,
	"tertiary":       60,
	"tertiary_link":  55,
	"unclassified":   40,
	"residential":    40,
	"service":        20,
	"track":          10,
}

func classPriority(e edges.Edge) int {
	return highwayPriority[e.HighwayClass()]
}

// rankCandidates 对候选做确定性排序：距离桶升序 → 等级降序 →
// 精确距离升序 → 边 id 升序。截断策略取前 maxEdges 条。
func rankCandidates(list []candidate) {
	sort.Slice(list, func(i, j int) bool {
		bi := int(list[i].distM / tieBucketM)
		bj := int(list[j].distM / tieBucketM)
		if bi != bj {
			return bi < bj
		}
		pi := classPriority(list[i].edge)
		pj := classPriority(list[j].edge)
		if pi != pj {
			return pi > pj
		}
		if list[i].distM != list[j].distM {
			return list[i].distM < list[j].distM
		}
		return list[i].edge.ID < list[j].edge.ID
	})
}
