package token

import "math/big"

type grantStore interface {
	TokenGrantsGet(holder [20]byte) ([]Grant, error)
	TokenGrantsPut(holder [20]byte, grants []Grant) error
}

// vestingLedger tracks the grants attached to each holder.
type vestingLedger struct {
	state grantStore
}

func (v vestingLedger) grants(holder [20]byte) ([]Grant, error) {
	return v.state.TokenGrantsGet(holder)
}

func (v vestingLedger) add(holder [20]byte, grant Grant) (int, error) {
	grants, err := v.state.TokenGrantsGet(holder)
	if err != nil {
		return 0, err
	}
	if len(grants) >= MaxGrantsPerHolder {
		return 0, ErrTooManyGrants
	}
	grants = append(grants, grant)
	if err := v.state.TokenGrantsPut(holder, grants); err != nil {
		return 0, err
	}
	return len(grants) - 1, nil
}

// remove deletes the grant at index by moving the last grant into its slot.
func (v vestingLedger) remove(holder [20]byte, index int) error {
	grants, err := v.state.TokenGrantsGet(holder)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(grants) {
		return ErrGrantNotFound
	}
	last := len(grants) - 1
	grants[index] = grants[last]
	return v.state.TokenGrantsPut(holder, grants[:last])
}

func (v vestingLedger) transferable(holder [20]byte, balance *big.Int, ts uint64) (*big.Int, error) {
	grants, err := v.state.TokenGrantsGet(holder)
	if err != nil {
		return nil, err
	}
	return transferableAt(balance, grants, ts), nil
}
