package store

// GeneratedBy records which flow produced an agenda.
type GeneratedBy string

const (
	GeneratedByAIAgent  GeneratedBy = "ai_agent"
	GeneratedByManual   GeneratedBy = "manual"
	GeneratedByImported GeneratedBy = "imported"
)

func (g GeneratedBy) IsValid() bool {
	switch g {
	case GeneratedByAIAgent, GeneratedByManual, GeneratedByImported:
		return true
	}
	return false
}

// FavoriteTypeSession is the favorite type for catalog sessions.
const FavoriteTypeSession = "session"
