package routes

import (
	"math/big"
	"net/http"
)

type transferRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type approvalRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (h *handler) getToken(w http.ResponseWriter, r *http.Request) {
	meta, err := h.backend.Token()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenView(meta))
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	acct, err := h.backend.Account(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(acct))
}

func (h *handler) getAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := pathAddress(r, "owner")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	spender, err := pathAddress(r, "spender")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	allowance, err := h.backend.Allowance(owner, spender)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"allowance": amountString(allowance)})
}

func (h *handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := parseAddressField("to", req.To)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.Transfer(caller(r), to, amount))
}

func (h *handler) transferFrom(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	from, err := parseAddressField("from", req.From)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := parseAddressField("to", req.To)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.TransferFrom(caller(r), from, to, amount))
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, h.backend.Approve)
}

func (h *handler) increaseApproval(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, h.backend.IncreaseApproval)
}

func (h *handler) decreaseApproval(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, h.backend.DecreaseApproval)
}

func (h *handler) approval(w http.ResponseWriter, r *http.Request, apply func(caller, spender [20]byte, amount *big.Int) error) {
	var req approvalRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	spender, err := parseAddressField("spender", req.Spender)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, apply(caller(r), spender, amount))
}
