package sqlstore

// Money columns hold integer cents. Timestamps are fixed-width UTC TEXT
// (see tsLayout) on both engines.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
    id              TEXT    PRIMARY KEY,
    name            TEXT    NOT NULL UNIQUE,
    description     TEXT    NOT NULL DEFAULT '',
    created_at      TEXT    NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS products (
    id              TEXT    PRIMARY KEY,
    name            TEXT    NOT NULL,
    price_cents     INTEGER NOT NULL CHECK (price_cents >= 0),
    -- '' for uncategorized
    category_id     TEXT    NOT NULL DEFAULT '',
    -- the conditional decrement in ReserveStock keeps this non-negative;
    -- the CHECK is the last line if someone bypasses it
    stock_quantity  INTEGER NOT NULL CHECK (stock_quantity >= 0),
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT    NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
	`CREATE TABLE IF NOT EXISTS wallets (
    user_id         TEXT    PRIMARY KEY,
    balance_cents   INTEGER NOT NULL CHECK (balance_cents >= 0),
    updated_at      TEXT    NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS cart_lines (
    id              TEXT    PRIMARY KEY,
    user_id         TEXT    NOT NULL,
    product_id      TEXT    NOT NULL REFERENCES products(id),
    quantity        INTEGER NOT NULL CHECK (quantity >= 1),
    added_at        TEXT    NOT NULL,
    UNIQUE (user_id, product_id)
)`,
	`CREATE TABLE IF NOT EXISTS orders (
    id               TEXT    PRIMARY KEY,
    user_id          TEXT    NOT NULL,
    total_cents      INTEGER NOT NULL,
    status           TEXT    NOT NULL,
    shipping_address TEXT    NOT NULL,
    payment_method   TEXT    NOT NULL DEFAULT '',
    created_at       TEXT    NOT NULL,
    updated_at       TEXT    NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
    order_id         TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    line_no          INTEGER NOT NULL,
    product_id       TEXT    NOT NULL,
    product_name     TEXT    NOT NULL,
    quantity         INTEGER NOT NULL CHECK (quantity >= 1),
    unit_price_cents INTEGER NOT NULL,
    PRIMARY KEY (order_id, line_no)
)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_product ON order_lines(product_id)`,
	`CREATE TABLE IF NOT EXISTS reviews (
    id          TEXT    PRIMARY KEY,
    user_id     TEXT    NOT NULL,
    product_id  TEXT    NOT NULL,
    order_id    TEXT    NOT NULL,
    rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    title       TEXT    NOT NULL DEFAULT '',
    content     TEXT    NOT NULL DEFAULT '',
    is_verified INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT    NOT NULL,
    updated_at  TEXT    NOT NULL,
    UNIQUE (user_id, product_id, order_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id, created_at)`,
	// Append-only audit of every status change.
	`CREATE TABLE IF NOT EXISTS order_status_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT    NOT NULL,
    from_status TEXT    NOT NULL DEFAULT '',
    to_status   TEXT    NOT NULL,
    actor_id    TEXT    NOT NULL DEFAULT '',
    note        TEXT    NOT NULL DEFAULT '',
    trace_id    TEXT    NOT NULL DEFAULT '',
    span_id     TEXT    NOT NULL DEFAULT '',
    created_at  TEXT    NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_order_status_log_order ON order_status_log(order_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_order_status_log_trace ON order_status_log(trace_id)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
    id              VARCHAR(36)  NOT NULL PRIMARY KEY,
    name            VARCHAR(100) NOT NULL,
    description     TEXT         NOT NULL,
    created_at      VARCHAR(32)  NOT NULL,
    UNIQUE KEY uq_categories_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
    id              VARCHAR(36)  NOT NULL PRIMARY KEY,
    name            VARCHAR(255) NOT NULL,
    price_cents     BIGINT       NOT NULL CHECK (price_cents >= 0),
    category_id     VARCHAR(36)  NOT NULL DEFAULT '',
    stock_quantity  INT          NOT NULL CHECK (stock_quantity >= 0),
    is_active       TINYINT(1)   NOT NULL DEFAULT 1,
    created_at      VARCHAR(32)  NOT NULL,
    INDEX idx_products_category (category_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS wallets (
    user_id         VARCHAR(64)  NOT NULL PRIMARY KEY,
    balance_cents   BIGINT       NOT NULL CHECK (balance_cents >= 0),
    updated_at      VARCHAR(32)  NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS cart_lines (
    id              VARCHAR(36)  NOT NULL PRIMARY KEY,
    user_id         VARCHAR(64)  NOT NULL,
    product_id      VARCHAR(36)  NOT NULL,
    quantity        INT          NOT NULL CHECK (quantity >= 1),
    added_at        VARCHAR(32)  NOT NULL,
    UNIQUE KEY uq_cart_user_product (user_id, product_id),
    CONSTRAINT fk_cart_product FOREIGN KEY (product_id) REFERENCES products(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
    id               VARCHAR(36)  NOT NULL PRIMARY KEY,
    user_id          VARCHAR(64)  NOT NULL,
    total_cents      BIGINT       NOT NULL,
    status           VARCHAR(32)  NOT NULL,
    shipping_address TEXT         NOT NULL,
    payment_method   VARCHAR(64)  NOT NULL DEFAULT '',
    created_at       VARCHAR(32)  NOT NULL,
    updated_at       VARCHAR(32)  NOT NULL,
    INDEX idx_orders_user (user_id, created_at),
    INDEX idx_orders_status (status, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_lines (
    order_id         VARCHAR(36)  NOT NULL,
    line_no          INT          NOT NULL,
    product_id       VARCHAR(36)  NOT NULL,
    product_name     VARCHAR(255) NOT NULL,
    quantity         INT          NOT NULL CHECK (quantity >= 1),
    unit_price_cents BIGINT       NOT NULL,
    PRIMARY KEY (order_id, line_no),
    INDEX idx_order_lines_product (product_id),
    CONSTRAINT fk_lines_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reviews (
    id          VARCHAR(36)  NOT NULL PRIMARY KEY,
    user_id     VARCHAR(64)  NOT NULL,
    product_id  VARCHAR(36)  NOT NULL,
    order_id    VARCHAR(36)  NOT NULL,
    rating      INT          NOT NULL CHECK (rating BETWEEN 1 AND 5),
    title       VARCHAR(255) NOT NULL DEFAULT '',
    content     TEXT         NOT NULL,
    is_verified TINYINT(1)   NOT NULL DEFAULT 1,
    created_at  VARCHAR(32)  NOT NULL,
    updated_at  VARCHAR(32)  NOT NULL,
    UNIQUE KEY uq_reviews_user_product_order (user_id, product_id, order_id),
    INDEX idx_reviews_product (product_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_status_log (
    id          BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
    order_id    VARCHAR(36)  NOT NULL,
    from_status VARCHAR(32)  NOT NULL DEFAULT '',
    to_status   VARCHAR(32)  NOT NULL,
    actor_id    VARCHAR(64)  NOT NULL DEFAULT '',
    note        VARCHAR(255) NOT NULL DEFAULT '',
    trace_id    VARCHAR(32)  NOT NULL DEFAULT '',
    span_id     VARCHAR(16)  NOT NULL DEFAULT '',
    created_at  VARCHAR(32)  NOT NULL,
    INDEX idx_order_status_log_order (order_id, created_at),
    INDEX idx_order_status_log_trace (trace_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
