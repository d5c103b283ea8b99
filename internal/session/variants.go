package session

import (
	"errors"

	"github.com/obitec/bodyway/internal/render"
	"github.com/obitec/bodyway/internal/store"
)

// StoreVariants resolves variants from the styles table.
type StoreVariants struct {
	Styles *store.StyleRepository
}

// Variant returns the stored style for id, or a hidden variant if there is none.
func (v StoreVariants) Variant(id int) (render.Variant, error) {
	st, err := v.Styles.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return render.Hidden(id), nil
	}
	if err != nil {
		return render.Variant{}, err
	}
	return st.RenderVariant(), nil
}
