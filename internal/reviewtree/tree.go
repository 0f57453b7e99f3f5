// Package reviewtree восстанавливает дерево отзывов фильма из плоского списка.
//
// Корнями выдаются только отзывы без родителя, у каждого узла рекурсивно
// заполняется children. Дочерние отзывы ищутся только среди отзывов того же
// фильма. Циклы и "чужие" родители не приводят к зацикливанию: такие записи
// пропускаются и возвращаются как аномалии.
package reviewtree

import (
	"sort"

	"movie-service/internal/domain"
)

// AnomalyKind тип нарушения целостности дерева.
type AnomalyKind string

const (
	// AnomalyForeignMovie отзыв передан в дерево другого фильма.
	AnomalyForeignMovie AnomalyKind = "foreign_movie"
	// AnomalyOrphan родитель отзыва не найден среди отзывов фильма.
	AnomalyOrphan AnomalyKind = "orphan"
	// AnomalyCycle отзыв участвует в цикле ссылок на родителя.
	AnomalyCycle AnomalyKind = "cycle"
)

// Anomaly запись, не попавшая в дерево.
type Anomaly struct {
	ReviewID int64
	Kind     AnomalyKind
}

// Build строит лес отзывов фильма movieID. Узлы упорядочены по возрастанию ID.
// Результат никогда не nil; каждый отзыв встречается в дереве не более одного раза.
func Build(movieID int64, reviews []domain.Review) ([]domain.ReviewNode, []Anomaly) {
	var anomalies []Anomaly

	byID := make(map[int64]domain.Review, len(reviews))
	for _, r := range reviews {
		if r.MovieID != movieID {
			anomalies = append(anomalies, Anomaly{ReviewID: r.ID, Kind: AnomalyForeignMovie})
			continue
		}
		byID[r.ID] = r
	}

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// parent id -> дети в порядке возрастания ID
	children := make(map[int64][]int64, len(byID))
	var roots []int64
	for _, id := range ids {
		r := byID[id]
		if r.ParentID == nil {
			roots = append(roots, id)
			continue
		}
		children[*r.ParentID] = append(children[*r.ParentID], id)
	}

	visited := make(map[int64]bool, len(byID))
	var materialize func(id int64) domain.ReviewNode
	materialize = func(id int64) domain.ReviewNode {
		visited[id] = true
		r := byID[id]
		node := domain.ReviewNode{ID: r.ID, Name: r.Name, Text: r.Text, Children: []domain.ReviewNode{}}
		for _, childID := range children[id] {
			if visited[childID] {
				anomalies = append(anomalies, Anomaly{ReviewID: childID, Kind: AnomalyCycle})
				continue
			}
			node.Children = append(node.Children, materialize(childID))
		}
		return node
	}

	forest := make([]domain.ReviewNode, 0, len(roots))
	for _, id := range roots {
		forest = append(forest, materialize(id))
	}

	// Недостижимые из корней записи: либо потомки отзыва с чужим/удалённым
	// родителем, либо звенья цикла.
	for _, id := range ids {
		if !visited[id] {
			anomalies = append(anomalies, Anomaly{ReviewID: id, Kind: classify(byID, id)})
		}
	}
	return forest, anomalies
}

// classify поднимается по цепочке родителей не более len(byID) шагов.
func classify(byID map[int64]domain.Review, id int64) AnomalyKind {
	cur := byID[id]
	for range len(byID) {
		if cur.ParentID == nil {
			return AnomalyOrphan
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			return AnomalyOrphan
		}
		cur = parent
	}
	return AnomalyCycle
}

// Count количество узлов в лесу.
func Count(forest []domain.ReviewNode) int {
	n := 0
	for _, node := range forest {
		n += 1 + Count(node.Children)
	}
	return n
}
