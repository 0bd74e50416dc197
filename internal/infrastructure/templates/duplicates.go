package templates

import (
	"log/slog"

	"github.com/corona10/goimagehash"

	"screenstate/internal/domain/entity"
)

// maxDuplicateDistance расстояние Хэмминга, при котором эталоны считаются одинаковыми
const maxDuplicateDistance = 0

type hashedTemplate struct {
	state entity.State
	path  string
	hash  *goimagehash.ImageHash
}

// warnDuplicates отмечает в наборе и логирует эталоны разных состояний с одинаковым
// перцептивным хешем: такие состояния неразличимы для сопоставления.
func warnDuplicates(set *entity.TemplateSet) {
	var hashed []hashedTemplate
	for _, state := range set.States() {
		for _, tpl := range set.References(state) {
			hash, err := goimagehash.DifferenceHash(tpl.Image)
			if err != nil {
				slog.Debug("cannot hash template", "path", tpl.Path, "error", err)
				continue
			}
			hashed = append(hashed, hashedTemplate{state: state, path: tpl.Path, hash: hash})
		}
	}

	for i := 0; i < len(hashed); i++ {
		for j := i + 1; j < len(hashed); j++ {
			a, b := hashed[i], hashed[j]
			if a.state == b.state {
				continue
			}
			dist, err := a.hash.Distance(b.hash)
			if err != nil || dist > maxDuplicateDistance {
				continue
			}
			slog.Warn("templates of different states look identical",
				"state", a.state, "path", a.path,
				"other_state", b.state, "other_path", b.path,
			)
			set.MarkDuplicate(a.state, b.state)
		}
	}
}

