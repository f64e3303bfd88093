package portal

// scheduleResponse is the JSON shape returned by LoadClass.ashx.
type scheduleResponse struct {
	Data                  []scheduleEntry `json:"Data"`
	PrimeraHoraPublicacion string         `json:"PrimeraHoraPublicacion"`
}

type scheduleEntry struct {
	Hora    string        `json:"Hora"`
	Valores []scheduleSlot `json:"Valores"`
}

type scheduleSlot struct {
	TipoEstado string        `json:"TipoEstado"`
	Valor      scheduleSeat  `json:"Valor"`
}

type scheduleSeat struct {
	ID               int64   `json:"Id"`
	AtletasEntrenando []any  `json:"AtletasEntrenando"`
	Plazas           int     `json:"Plazas"`
}

// bookResponse is the JSON shape returned by the Calendario_* claim
// endpoints.
type bookResponse struct {
	Res struct {
		EsCorrecto bool   `json:"EsCorrecto"`
		ErrorMsg   string `json:"ErrorMsg"`
	} `json:"Res"`
}

const (
	classStatusBorrable  = "Borrable"
	classStatusCambiable = "Cambiable"

	bookingLockedMarker = "locked"
	penaltyMarker        = "penaliz"
)
