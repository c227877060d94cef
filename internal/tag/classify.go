package tag

import "context"

// Partition 一批标签按归属分类后的结果。
type Partition struct {
	Person     []Tag
	Vehicle    []Tag
	Unassigned []Tag
	Mixed      []Tag
	Missing    []string // 系统中不存在的 TID
}

// PartitionTags 对已解析的标签做分类，并标出 requested 中未命中的 TID。
// 纯函数，不触发任何查询。
func PartitionTags(tags []Tag, requested []string) Partition {
	found := make(map[string]struct{}, len(tags))
	var p Partition
	for _, t := range tags {
		found[t.TagID] = struct{}{}
		switch t.Classify() {
		case ClassPerson:
			p.Person = append(p.Person, t)
		case ClassVehicle:
			p.Vehicle = append(p.Vehicle, t)
		case ClassMixed:
			p.Mixed = append(p.Mixed, t)
		default:
			p.Unassigned = append(p.Unassigned, t)
		}
	}

	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := found[id]; !ok {
			p.Missing = append(p.Missing, id)
		}
	}
	return p
}

// Classifier 把一组 TID 解析为系统标签并分类（只读）。
type Classifier struct {
	repo *Repo
}

func NewClassifier(repo *Repo) *Classifier {
	return &Classifier{repo: repo}
}

// Resolve 查询并分类；不存在的 TID 记入 Partition.Missing。
func (c *Classifier) Resolve(ctx context.Context, tagIDs []string) (Partition, error) {
	tags, err := c.repo.FindByTagIDs(ctx, tagIDs)
	if err != nil {
		return Partition{}, err
	}
	return PartitionTags(tags, tagIDs), nil
}

// Inactive 返回分区中所有状态不是 active 的标签。
func (p Partition) Inactive() []Tag {
	var out []Tag
	for _, group := range [][]Tag{p.Person, p.Vehicle, p.Unassigned, p.Mixed} {
		for _, t := range group {
			if !t.IsActive() {
				out = append(out, t)
			}
		}
	}
	return out
}

// TagIDs 提取一组标签的 TID。
func TagIDs(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.TagID)
	}
	return out
}
