package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"crowdsale/core"
	"crowdsale/core/types"
	"crowdsale/crypto"
	"crowdsale/native/sale"
	"crowdsale/native/token"
)

type windowView struct {
	Rate  uint64 `json:"rate"`
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type limitsView struct {
	MinContribution     string `json:"minContribution"`
	MaxUnverified       string `json:"maxUnverified"`
	MaxSMSVerified      string `json:"maxSmsVerified"`
	SMSBonusBps         uint64 `json:"smsBonusBps"`
	KYCBonusBps         uint64 `json:"kycBonusBps"`
	Cap                 string `json:"cap"`
	TeamBonusCeilingBps uint64 `json:"teamBonusCeilingBps"`
}

type totalsView struct {
	UnitsSold          string `json:"unitsSold"`
	Raised             string `json:"raised"`
	PreSaleRaised      string `json:"preSaleRaised"`
	Refunded           string `json:"refunded"`
	Contributors       uint64 `json:"contributors"`
	TeamBonusAllocated string `json:"teamBonusAllocated"`
}

type teamBonusView struct {
	Beneficiary string `json:"beneficiary"`
	ShareBps    uint64 `json:"shareBps"`
	Cliff       uint64 `json:"cliff"`
	VestingEnd  uint64 `json:"vestingEnd"`
}

type saleView struct {
	Address string          `json:"address"`
	Phase   string          `json:"phase"`
	Paused  bool            `json:"paused"`
	PreSale windowView      `json:"presale"`
	Window  windowView      `json:"window"`
	Limits  limitsView      `json:"limits"`
	Totals  totalsView      `json:"totals"`
	Audit   *auditView      `json:"audit,omitempty"`
	Vault   string          `json:"vault"`
	Team    []teamBonusView `json:"teamBonus"`
}

type auditView struct {
	Fulfilled bool   `json:"fulfilled"`
	Comment   string `json:"comment"`
}

type participantView struct {
	Address     string `json:"address"`
	Tier        string `json:"tier"`
	KYC         bool   `json:"kyc"`
	Contributed string `json:"contributed"`
	Deposited   string `json:"deposited"`
	Balance     string `json:"balance"`
	Currency    string `json:"currency"`
}

type receiptView struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
	Tokens      string `json:"tokens"`
	Tier        string `json:"tier"`
	Phase       string `json:"phase"`
}

type tokenView struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Decimals          uint8  `json:"decimals"`
	Owner             string `json:"owner"`
	MintingFinished   bool   `json:"mintingFinished"`
	Released          bool   `json:"released"`
	TotalSupply       string `json:"totalSupply"`
	RewardDestination string `json:"rewardDestination,omitempty"`
	InflationBps      uint64 `json:"inflationBps"`
}

type grantView struct {
	Granter   string `json:"granter"`
	Value     string `json:"value"`
	Start     uint64 `json:"start"`
	Cliff     uint64 `json:"cliff"`
	Vesting   uint64 `json:"vesting"`
	Revocable bool   `json:"revocable"`
	Burnable  bool   `json:"burnable"`
}

type accountView struct {
	Address      string      `json:"address"`
	Balance      string      `json:"balance"`
	Transferable string      `json:"transferable"`
	Currency     string      `json:"currency"`
	Grants       []grantView `json:"grants"`
}

type eventView struct {
	Seq        uint64            `json:"seq,omitempty"`
	ID         string            `json:"id,omitempty"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	RecordedAt int64             `json:"recordedAt,omitempty"`
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func windowFrom(w sale.Window) windowView {
	return windowView{Rate: w.Rate, Start: w.Start, End: w.End}
}

func newSaleView(status *core.SaleStatus) saleView {
	view := saleView{
		Address: crypto.FormatAddress(status.Address),
		Phase:   status.Phase.String(),
		Paused:  status.Paused,
		PreSale: windowFrom(status.Config.PreSale),
		Window:  windowFrom(status.Config.Sale),
		Limits: limitsView{
			MinContribution:     amountString(status.Limits.MinContribution),
			MaxUnverified:       amountString(status.Limits.MaxUnverified),
			MaxSMSVerified:      amountString(status.Limits.MaxSMSVerified),
			SMSBonusBps:         status.Limits.SMSBonusBps,
			KYCBonusBps:         status.Limits.KYCBonusBps,
			Cap:                 amountString(status.Limits.Cap),
			TeamBonusCeilingBps: status.Limits.TeamBonusCeilingBps,
		},
		Totals: totalsView{
			UnitsSold:          amountString(status.Totals.UnitsSold),
			Raised:             amountString(status.Totals.Raised),
			PreSaleRaised:      amountString(status.Totals.PreSaleRaised),
			Refunded:           amountString(status.Totals.Refunded),
			Contributors:       status.Totals.Contributors,
			TeamBonusAllocated: amountString(status.Totals.TeamBonusAllocated),
		},
		Vault: status.Vault.String(),
		Team:  make([]teamBonusView, 0, len(status.Team)),
	}
	if status.Audit.Present() {
		view.Audit = &auditView{Fulfilled: status.Audit.Fulfilled, Comment: status.Audit.Comment}
	}
	for _, entry := range status.Team {
		view.Team = append(view.Team, teamBonusView{
			Beneficiary: crypto.FormatAddress(entry.Beneficiary),
			ShareBps:    entry.ShareBps,
			Cliff:       entry.Cliff,
			VestingEnd:  entry.VestingEnd,
		})
	}
	return view
}

func newParticipantView(p *core.ParticipantStatus) participantView {
	return participantView{
		Address:     crypto.FormatAddress(p.Address),
		Tier:        p.Tier.String(),
		KYC:         p.KYC,
		Contributed: amountString(p.Contributed),
		Deposited:   amountString(p.Deposited),
		Balance:     amountString(p.Balance),
		Currency:    amountString(p.Currency),
	}
}

func newReceiptView(r *sale.Receipt) receiptView {
	return receiptView{
		Participant: crypto.FormatAddress(r.Participant),
		Amount:      amountString(r.Amount),
		Tokens:      amountString(r.Tokens),
		Tier:        r.Tier.String(),
		Phase:       r.Phase.String(),
	}
}

func newTokenView(meta *token.Metadata) tokenView {
	view := tokenView{
		Name:            meta.Name,
		Symbol:          meta.Symbol,
		Decimals:        meta.Decimals,
		Owner:           crypto.FormatAddress(meta.Owner),
		MintingFinished: meta.MintingFinished,
		Released:        meta.Released,
		TotalSupply:     amountString(meta.TotalSupply),
		InflationBps:    meta.InflationBps,
	}
	if meta.RewardDestination != ([20]byte{}) {
		view.RewardDestination = crypto.FormatAddress(meta.RewardDestination)
	}
	return view
}

func newAccountView(acct *core.AccountStatus) accountView {
	view := accountView{
		Address:      crypto.FormatAddress(acct.Address),
		Balance:      amountString(acct.Balance),
		Transferable: amountString(acct.Transferable),
		Currency:     amountString(acct.Currency),
		Grants:       make([]grantView, 0, len(acct.Grants)),
	}
	for _, g := range acct.Grants {
		view.Grants = append(view.Grants, grantView{
			Granter:   crypto.FormatAddress(g.Granter),
			Value:     amountString(g.Value),
			Start:     g.Start,
			Cliff:     g.Cliff,
			Vesting:   g.Vesting,
			Revocable: g.Revocable,
			Burnable:  g.Burnable,
		})
	}
	return view
}

func newEventView(evt *types.Event) eventView {
	attrs := make(map[string]string, len(evt.Attributes))
	for k, v := range evt.Attributes {
		attrs[k] = v
	}
	return eventView{Type: evt.Type, Attributes: attrs}
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errDecode, err)
	}
	return nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s required", errDecode, field)
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative decimal integer", errDecode, field)
	}
	return value, nil
}

func parseAddressField(field, raw string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %s: %v", errDecode, field, err)
	}
	return addr, nil
}

func pathAddress(r *http.Request, param string) ([20]byte, error) {
	return parseAddressField(param, chi.URLParam(r, param))
}
