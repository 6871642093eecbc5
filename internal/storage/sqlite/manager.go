package sqlite

import (
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// Manager aggregates the storage layer over one SQLite connection.
type Manager struct {
	db *DB

	crawls      *CrawlStorage
	rawArticles *RawArticleStorage
	domains     *DomainStorage
	articles    *ArticleStorage
	keywords    *KeywordStorage
	documents   *DocumentStorage
	provenance  *ProvenanceStorage
	queries     *UserQueryStorage
}

// NewManager opens the database and builds the per-entity storages.
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (*Manager, error) {
	db, err := Open(logger, config)
	if err != nil {
		return nil, err
	}
	return newManagerWithDB(db, logger), nil
}

func newManagerWithDB(db *DB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:          db,
		crawls:      &CrawlStorage{db: db, logger: logger},
		rawArticles: &RawArticleStorage{db: db, logger: logger},
		domains:     &DomainStorage{db: db, logger: logger},
		articles:    &ArticleStorage{db: db, logger: logger},
		keywords:    &KeywordStorage{db: db, logger: logger},
		documents:   &DocumentStorage{db: db, logger: logger},
		provenance:  &ProvenanceStorage{db: db, logger: logger},
		queries:     &UserQueryStorage{db: db, logger: logger},
	}
}

func (m *Manager) Crawls() interfaces.CrawlStorage            { return m.crawls }
func (m *Manager) RawArticles() interfaces.RawArticleStorage  { return m.rawArticles }
func (m *Manager) Domains() interfaces.DomainStorage          { return m.domains }
func (m *Manager) Articles() interfaces.ArticleStorage        { return m.articles }
func (m *Manager) Keywords() interfaces.KeywordStorage        { return m.keywords }
func (m *Manager) Documents() interfaces.DocumentStorage      { return m.documents }
func (m *Manager) Provenance() interfaces.ProvenanceStorage   { return m.provenance }
func (m *Manager) Queries() interfaces.UserQueryStorage       { return m.queries }

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}
