package sqlite

const schemaSQL = `
-- Crawl provenance
CREATE TABLE IF NOT EXISTS crawl_sources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS crawl_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER NOT NULL REFERENCES crawl_sources(id),
	key TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('SQL','Text','ARFF')),
	status TEXT NOT NULL DEFAULT 'Incomplete'
		CHECK (status IN ('Incomplete','Complete','Error'))
);
CREATE INDEX IF NOT EXISTS idx_crawl_files_status ON crawl_files(status);
CREATE INDEX IF NOT EXISTS idx_crawl_files_source_key ON crawl_files(source_id, key);

-- Raw articles: short-term transfer records, one per archive row
CREATE TABLE IF NOT EXISTS raw_articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	crawl_id INTEGER NOT NULL REFERENCES crawl_files(id),
	url TEXT NOT NULL,
	content_type TEXT NOT NULL,
	date_crawled INTEGER NOT NULL,
	headers TEXT,
	body BLOB
);
CREATE INDEX IF NOT EXISTS idx_raw_articles_dedup ON raw_articles(crawl_id, url, date_crawled);

-- Primary key on raw_article_id guarantees one result per raw article
CREATE TABLE IF NOT EXISTS raw_article_results (
	raw_article_id INTEGER PRIMARY KEY REFERENCES raw_articles(id),
	status TEXT NOT NULL DEFAULT 'Unprocessed'
		CHECK (status IN ('Unprocessed','Processed','Error'))
);

CREATE TABLE IF NOT EXISTS raw_article_result_links (
	raw_article_id INTEGER PRIMARY KEY REFERENCES raw_articles(id),
	article_id INTEGER NOT NULL REFERENCES articles(id)
);

-- Domains
CREATE TABLE IF NOT EXISTS domains (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL UNIQUE,
	first_seen INTEGER NOT NULL
);

-- Articles: exactly one per (domain, path, crawl)
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain_id INTEGER NOT NULL REFERENCES domains(id),
	path TEXT NOT NULL,
	date_crawled INTEGER NOT NULL,
	crawl_id INTEGER NOT NULL REFERENCES crawl_files(id),
	status TEXT NOT NULL CHECK (status IN
		('Processed','NoDates','NoContent','UnsupportedType',
		 'ClassificationError','LanguageError','OtherError')),
	UNIQUE (domain_id, path, crawl_id)
);
CREATE INDEX IF NOT EXISTS idx_articles_domain ON articles(domain_id);

-- Documents exist only for status=Processed articles
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	article_id INTEGER NOT NULL REFERENCES articles(id),
	label TEXT NOT NULL CHECK (label IN ('Positive','Unknown','Negative')),
	length INTEGER NOT NULL,
	headline TEXT,
	pos_sentences INTEGER NOT NULL DEFAULT 0,
	neg_sentences INTEGER NOT NULL DEFAULT 0,
	pos_phrases INTEGER NOT NULL DEFAULT 0,
	neg_phrases INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_documents_article ON documents(article_id);

CREATE TABLE IF NOT EXISTS sentences (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	label TEXT NOT NULL CHECK (label IN ('Positive','Unknown','Negative')),
	score REAL NOT NULL CHECK (score >= -1 AND score <= 1),
	prob REAL NOT NULL CHECK (prob >= 0 AND prob <= 1),
	level TEXT NOT NULL CHECK (level IN
		('H1','H2','H3','H4','H5','H6','P','Other','Unknown'))
);
CREATE INDEX IF NOT EXISTS idx_sentences_document ON sentences(document_id);

CREATE TABLE IF NOT EXISTS phrases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sentence_id INTEGER NOT NULL REFERENCES sentences(id),
	label TEXT NOT NULL CHECK (label IN ('Positive','Unknown','Negative')),
	score REAL NOT NULL CHECK (score >= -1 AND score <= 1),
	prob REAL NOT NULL CHECK (prob >= 0 AND prob <= 1)
);
CREATE INDEX IF NOT EXISTS idx_phrases_sentence ON phrases(sentence_id);

-- Keywords: interned, length- and charset-bounded
CREATE TABLE IF NOT EXISTS keywords (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL UNIQUE CHECK (length(word) <= 32)
);

CREATE TABLE IF NOT EXISTS keyword_incidences (
	keyword_id INTEGER NOT NULL REFERENCES keywords(id),
	phrase_id INTEGER NOT NULL REFERENCES phrases(id),
	PRIMARY KEY (keyword_id, phrase_id)
);
CREATE INDEX IF NOT EXISTS idx_incidences_phrase ON keyword_incidences(phrase_id);

CREATE TABLE IF NOT EXISTS keyword_adjacencies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	key1_id INTEGER NOT NULL REFERENCES keywords(id),
	key2_id INTEGER REFERENCES keywords(id)
);
CREATE INDEX IF NOT EXISTS idx_adjacencies_document ON keyword_adjacencies(document_id);
CREATE INDEX IF NOT EXISTS idx_adjacencies_key1 ON keyword_adjacencies(key1_id);
CREATE INDEX IF NOT EXISTS idx_adjacencies_key2 ON keyword_adjacencies(key2_id);

-- Dates
CREATE TABLE IF NOT EXISTS certain_dates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	date INTEGER NOT NULL,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_certain_dates_document ON certain_dates(document_id);

CREATE TABLE IF NOT EXISTS ambiguous_dates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	date INTEGER NOT NULL,
	day_first INTEGER NOT NULL,
	year_first INTEGER NOT NULL,
	matched_text TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ambiguous_dates_document ON ambiguous_dates(document_id);

-- Link graph
CREATE TABLE IF NOT EXISTS relative_links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relative_links_document ON relative_links(document_id);

CREATE TABLE IF NOT EXISTS absolute_links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	domain_id INTEGER NOT NULL REFERENCES domains(id),
	path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_absolute_links_document ON absolute_links(document_id);

-- Software provenance
CREATE TABLE IF NOT EXISTS software_versions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS software_involvement_records (
	software_id INTEGER NOT NULL REFERENCES software_versions(id),
	document_id INTEGER NOT NULL REFERENCES documents(id),
	action TEXT NOT NULL CHECK (action IN
		('Classified','Dated','Processed','Extracted','Other')),
	PRIMARY KEY (software_id, document_id, action)
);

-- User queries, unique by text
CREATE TABLE IF NOT EXISTS user_queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	fulfilled_at INTEGER,
	email TEXT,
	message TEXT,
	cancelled INTEGER NOT NULL DEFAULT 0
);
`
