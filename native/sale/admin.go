package sale

// ConfigurePreSale replaces the pre-sale window. Operator only, while the
// pre-sale has not started.
func (e *Engine) ConfigurePreSale(caller [20]byte, w Window) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.Operator)
		if err != nil {
			return err
		}
		if record.Phase != PhasePreparePreSale {
			return ErrWrongPhase
		}
		if err := validateWindow(w, e.now()); err != nil {
			return err
		}
		if record.Config.Sale.configured() && w.End > record.Config.Sale.Start {
			return ErrInvalidWindow
		}
		record.Config.PreSale = w
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		e.emit(windowEvent(EventTypePreSaleConfigured, w))
		return nil
	})
}

// ConfigureSale replaces the sale window. Operator only, before the sale
// window opens.
func (e *Engine) ConfigureSale(caller [20]byte, w Window) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.Operator)
		if err != nil {
			return err
		}
		if record.Phase != PhasePreparePreSale && record.Phase != PhasePrepareSale {
			return ErrWrongPhase
		}
		if err := validateWindow(w, e.now()); err != nil {
			return err
		}
		if record.Config.PreSale.configured() && w.Start < record.Config.PreSale.End {
			return ErrInvalidWindow
		}
		record.Config.Sale = w
		if err := e.state.SaleRecordPut(record); err != nil {
			return err
		}
		e.emit(windowEvent(EventTypeWindowConfigured, w))
		return nil
	})
}

// Pause stops contributions until Unpause.
func (e *Engine) Pause(caller [20]byte) error {
	return e.setPaused(caller, true)
}

// Unpause resumes contributions.
func (e *Engine) Unpause(caller [20]byte) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller [20]byte, paused bool) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.Operator)
		if err != nil {
			return err
		}
		if record.Phase.Terminal() {
			return ErrTerminalPhase
		}
		current, err := e.state.IsPaused(ModuleName)
		if err != nil {
			return err
		}
		if current == paused {
			if paused {
				return ErrAlreadyPaused
			}
			return ErrNotPaused
		}
		if err := e.state.SetPaused(ModuleName, paused); err != nil {
			return err
		}
		e.emit(pauseEvent(paused, e.now()))
		return nil
	})
}

// RenameToken renames the asset. Operator only, before the sale concludes.
func (e *Engine) RenameToken(caller [20]byte, name, symbol string) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.Operator)
		if err != nil {
			return err
		}
		if record.Phase.Terminal() {
			return ErrTerminalPhase
		}
		return e.ledger.Rename(e.address, name, symbol)
	})
}

// ConfirmKYC registers participant as KYC verified.
func (e *Engine) ConfirmKYC(caller, participant [20]byte) error {
	return e.atomic(func() error {
		record, err := e.loadGated(caller, e.roles.KYCConfirmer)
		if err != nil {
			return err
		}
		if record.Phase.Terminal() {
			return ErrTerminalPhase
		}
		if participant == ([20]byte{}) {
			return ErrZeroAddress
		}
		rec, err := e.state.SaleParticipantGet(participant)
		if err != nil {
			return err
		}
		rec.KYC = true
		if err := e.state.SaleParticipantPut(participant, rec); err != nil {
			return err
		}
		e.emit(kycConfirmedEvent(participant, e.now()))
		return nil
	})
}
