package routes

import "net/http"

func (h *handler) certify(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.Certify(caller(r), addr))
}

func (h *handler) revoke(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.noContent(w, r, h.backend.Revoke(caller(r), addr))
}
