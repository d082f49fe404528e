package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- USER TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS user SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS phone_number ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS is_verified ON user TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS language_preference ON user TYPE string DEFAULT 'en';
    DEFINE FIELD IF NOT EXISTS created_at ON user TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS last_login_at ON user TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS user_phone ON user FIELDS phone_number UNIQUE;

    -- ==========================================================================
    -- VERIFICATION CODE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS verification_code SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS phone_number ON verification_code TYPE string;
    DEFINE FIELD IF NOT EXISTS code ON verification_code TYPE string;
    DEFINE FIELD IF NOT EXISTS is_used ON verification_code TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS expires_at ON verification_code TYPE datetime;
    DEFINE FIELD IF NOT EXISTS created_at ON verification_code TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS verification_phone ON verification_code FIELDS phone_number;

    -- ==========================================================================
    -- SUBSCRIPTION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS subscription SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user ON subscription TYPE record<user>;
    DEFINE FIELD IF NOT EXISTS tier ON subscription TYPE string ASSERT $value INSIDE ['free', 'paid'];
    DEFINE FIELD IF NOT EXISTS started_at ON subscription TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS expires_at ON subscription TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS is_active ON subscription TYPE bool DEFAULT true;
    DEFINE FIELD IF NOT EXISTS payment_reference ON subscription TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON subscription TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS subscription_user ON subscription FIELDS user;

    -- ==========================================================================
    -- USAGE TABLE (per-user per-day counters)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS usage SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user ON usage TYPE record<user>;
    DEFINE FIELD IF NOT EXISTS day ON usage TYPE string;
    DEFINE FIELD IF NOT EXISTS message_count ON usage TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS weather_queries ON usage TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS market_queries ON usage TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS updated_at ON usage TYPE datetime DEFAULT time::now();

    -- One counter row per user per calendar day
    DEFINE INDEX IF NOT EXISTS usage_user_day ON usage FIELDS user, day UNIQUE;

    -- ==========================================================================
    -- CONVERSATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user ON conversation TYPE record<user>;
    DEFINE FIELD IF NOT EXISTS title ON conversation TYPE string DEFAULT 'New Conversation';
    DEFINE FIELD IF NOT EXISTS language ON conversation TYPE string DEFAULT 'en';
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_user ON conversation FIELDS user;

    -- ==========================================================================
    -- MESSAGE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON message TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value INSIDE ['user', 'assistant'];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS image_url ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS audio_url ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS metadata ON message TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_conversation ON message FIELDS conversation;
    DEFINE INDEX IF NOT EXISTS message_created ON message FIELDS created_at;

    -- ==========================================================================
    -- WEATHER TABLE (cached panel data)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS weather SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS location ON weather TYPE string;
    DEFINE FIELD IF NOT EXISTS temperature ON weather TYPE float;
    DEFINE FIELD IF NOT EXISTS condition ON weather TYPE string;
    DEFINE FIELD IF NOT EXISTS humidity ON weather TYPE float;
    DEFINE FIELD IF NOT EXISTS wind_speed ON weather TYPE float;
    DEFINE FIELD IF NOT EXISTS forecast ON weather TYPE option<array> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS fetched_at ON weather TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS valid_until ON weather TYPE datetime;

    DEFINE INDEX IF NOT EXISTS weather_location ON weather FIELDS location;

    -- ==========================================================================
    -- MARKET PRICE TABLE (cached panel data)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS market_price SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS product_name ON market_price TYPE string;
    DEFINE FIELD IF NOT EXISTS price ON market_price TYPE float;
    DEFINE FIELD IF NOT EXISTS unit ON market_price TYPE string;
    DEFINE FIELD IF NOT EXISTS market_location ON market_price TYPE string;
    DEFINE FIELD IF NOT EXISTS currency ON market_price TYPE string DEFAULT 'USD';
    DEFINE FIELD IF NOT EXISTS updated_at ON market_price TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS market_location_idx ON market_price FIELDS market_location;
`
