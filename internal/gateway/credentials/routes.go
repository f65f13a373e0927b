package credentials

// Subsystem identifies a calling subsystem for credential selection.
type Subsystem string

const (
	SubsystemContent     Subsystem = "content"
	SubsystemSEO         Subsystem = "seo"
	SubsystemMarketplace Subsystem = "marketplace"
	SubsystemPayments    Subsystem = "payments"
	SubsystemAnalytics   Subsystem = "analytics"
	SubsystemMisc        Subsystem = "misc"
)

// legacyAliases folds retired pool names into current subsystem tags.
// Resolved once at the selector boundary, not scattered through callers.
var legacyAliases = map[string]Subsystem{
	"background": SubsystemMisc,
}

// Resolve maps a caller-supplied tag to a known subsystem. Legacy
// aliases fold into their replacement; unknown tags fold into misc.
func Resolve(tag string) Subsystem {
	if alias, ok := legacyAliases[tag]; ok {
		return alias
	}
	switch s := Subsystem(tag); s {
	case SubsystemContent, SubsystemSEO, SubsystemMarketplace,
		SubsystemPayments, SubsystemAnalytics, SubsystemMisc:
		return s
	default:
		return SubsystemMisc
	}
}

// route is one row of the static system-to-credential map.
type route struct {
	primary  Subsystem
	fallback Subsystem // empty means no fallback
}

// routes is immutable after process start. Every subsystem's primary is
// its own dedicated slot; fallbacks borrow an adjacent pool rather than
// the whole system sharing one key.
var routes = map[Subsystem]route{
	SubsystemContent:     {primary: SubsystemContent, fallback: SubsystemMisc},
	SubsystemSEO:         {primary: SubsystemSEO, fallback: SubsystemContent},
	SubsystemMarketplace: {primary: SubsystemMarketplace, fallback: SubsystemMisc},
	SubsystemPayments:    {primary: SubsystemPayments, fallback: SubsystemMisc},
	SubsystemAnalytics:   {primary: SubsystemAnalytics, fallback: SubsystemMisc},
	SubsystemMisc:        {primary: SubsystemMisc},
}

// routeFor looks up the route table. Resolve guarantees the subsystem
// is known, so the misc route is the only possible default.
func routeFor(s Subsystem) route {
	if r, ok := routes[s]; ok {
		return r
	}
	return routes[SubsystemMisc]
}

// Subsystems returns the route table keys in stable order, for status
// reporting.
func Subsystems() []Subsystem {
	return []Subsystem{
		SubsystemContent,
		SubsystemSEO,
		SubsystemMarketplace,
		SubsystemPayments,
		SubsystemAnalytics,
		SubsystemMisc,
	}
}
