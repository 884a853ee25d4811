package routes

import (
	"net/http"

	"crowdsale/gateway/middleware"
	"crowdsale/native/sale"
)

type amountRequest struct {
	Amount string `json:"amount"`
}

type windowRequest struct {
	Rate  uint64 `json:"rate"`
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type teamBonusRequest struct {
	Beneficiary string `json:"beneficiary"`
	ShareBps    uint64 `json:"shareBps"`
	Cliff       uint64 `json:"cliff"`
	VestingEnd  uint64 `json:"vestingEnd"`
}

type renameRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type auditRequest struct {
	Fulfilled bool   `json:"fulfilled"`
	Comment   string `json:"comment"`
}

func caller(r *http.Request) [20]byte {
	subject, _ := middleware.Subject(r.Context())
	return subject
}

func (h *handler) getSale(w http.ResponseWriter, r *http.Request) {
	status, err := h.backend.SaleStatus()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSaleView(status))
}

func (h *handler) getParticipant(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := h.backend.Participant(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipantView(status))
}

func (h *handler) contribute(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	receipt, err := h.backend.Contribute(caller(r), amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReceiptView(receipt))
}

func (h *handler) claimRefund(w http.ResponseWriter, r *http.Request) {
	refunded, err := h.backend.ClaimRefund(caller(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"refunded": amountString(refunded)})
}

func (h *handler) advance(w http.ResponseWriter, r *http.Request) {
	phase, err := h.backend.Advance()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"phase": phase.String()})
}

func (h *handler) configurePreSale(w http.ResponseWriter, r *http.Request) {
	h.configureWindow(w, r, h.backend.ConfigurePreSale)
}

func (h *handler) configureSale(w http.ResponseWriter, r *http.Request) {
	h.configureWindow(w, r, h.backend.ConfigureSale)
}

func (h *handler) configureWindow(w http.ResponseWriter, r *http.Request, apply func([20]byte, sale.Window) error) {
	var req windowRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	window := sale.Window{Rate: req.Rate, Start: req.Start, End: req.End}
	if err := apply(caller(r), window); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowFrom(window))
}

func (h *handler) addTeamBonus(w http.ResponseWriter, r *http.Request) {
	var req teamBonusRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	beneficiary, err := parseAddressField("beneficiary", req.Beneficiary)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry := sale.TeamBonusEntry{
		Beneficiary: beneficiary,
		ShareBps:    req.ShareBps,
		Cliff:       req.Cliff,
		VestingEnd:  req.VestingEnd,
	}
	if err := h.backend.AddTeamBonus(caller(r), entry); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.backend.Pause(caller(r)))
}

func (h *handler) unpause(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.backend.Unpause(caller(r)))
}

func (h *handler) rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.RenameToken(caller(r), req.Name, req.Symbol))
}

func (h *handler) confirmKYC(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.ConfirmKYC(caller(r), addr))
}

func (h *handler) confirmLawfulness(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.ConfirmLawfulness(caller(r), req.Fulfilled, req.Comment))
}

func (h *handler) finalize(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.backend.Finalize(caller(r)))
}

func (h *handler) enableRefunds(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.backend.EnableRefunds(caller(r)))
}

func (h *handler) noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
