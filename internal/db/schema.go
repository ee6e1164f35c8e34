package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- ARTICLE TABLE
    -- ==========================================================================
    -- Record IDs are derived from the source URL so the same article is never
    -- ingested twice.
    DEFINE TABLE IF NOT EXISTS article SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS url ON article TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON article TYPE string;
    DEFINE FIELD IF NOT EXISTS summary ON article TYPE option<string>;
    -- User rating: NONE = unrated, true = relevant, false = not relevant
    DEFINE FIELD IF NOT EXISTS relevant ON article TYPE option<bool>;
    -- Scoring output
    DEFINE FIELD IF NOT EXISTS ai_score ON article TYPE option<int> ASSERT $value == NONE OR ($value >= 1 AND $value <= 10);
    DEFINE FIELD IF NOT EXISTS ai_summary ON article TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS ai_score_source ON article TYPE option<string> ASSERT $value == NONE OR $value IN ["model", "fallback"];
    -- Topic gate cache: once filtered, an article never re-enters the pipeline
    DEFINE FIELD IF NOT EXISTS topic_filtered ON article TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS topic_filtered_at ON article TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS created_at ON article TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS article_url ON article FIELDS url UNIQUE;
    DEFINE INDEX IF NOT EXISTS article_relevant ON article FIELDS relevant;
    DEFINE INDEX IF NOT EXISTS article_topic_filtered ON article FIELDS topic_filtered;

    -- ==========================================================================
    -- PROFILE TABLE
    -- ==========================================================================
    -- Single logical record (profile:user) holding the learned preferences.
    DEFINE TABLE IF NOT EXISTS profile SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS likes ON profile TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS dislikes ON profile TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS changelog ON profile TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON profile TYPE datetime;
    DEFINE FIELD IF NOT EXISTS last_updated ON profile TYPE datetime;
`
