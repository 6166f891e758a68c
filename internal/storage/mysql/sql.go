package mysql

// Sentiment labels are stored lower-case, see domain.NormalizeLabel.

const upsertBankSQL = `
INSERT INTO banks (bank_name, app_name)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  app_name = VALUES(app_name)
`

const bankIDSQL = `SELECT bank_id FROM banks WHERE bank_name = ?`

const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (review_id, bank_id, review_text, rating, review_date, sentiment_label, sentiment_score, themes, source)\n" +
	"VALUES "

const reviewPlaceholders = "(?,?,?,?,?,?,?,?,?)"

// Source fields are immutable once stored; reruns only refresh annotations.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  sentiment_label = VALUES(sentiment_label),\n" +
	"  sentiment_score = VALUES(sentiment_score),\n" +
	"  themes          = VALUES(themes)\n"

const existingReviewsPrefix = "SELECT COUNT(*) FROM reviews WHERE review_id IN "

const getReviewSQL = `
SELECT
  r.review_id,
  r.bank_id,
  b.bank_name,
  r.review_text,
  r.rating,
  r.review_date,
  r.sentiment_label,
  r.sentiment_score,
  r.themes,
  r.source,
  r.created_at
FROM reviews r
JOIN banks b ON b.bank_id = r.bank_id
WHERE r.review_id = ?
`

const countRowsSQL = `
SELECT
  (SELECT COUNT(*) FROM banks),
  (SELECT COUNT(*) FROM reviews)
`

// -----------------------------------------------------------------------------
// REPORTS
// Every ORDER BY ends on a unique key so reruns return identical rows.
// Theme reports count the primary theme, the first entry of the stored list.
// -----------------------------------------------------------------------------

const bankRankingSQL = `
SELECT
  b.bank_name,
  COUNT(r.review_id)                                                                  AS total_reviews,
  COALESCE(ROUND(AVG(r.rating), 2), 0)                                                AS avg_rating,
  COALESCE(ROUND(AVG(CASE WHEN r.sentiment_label = 'positive' THEN 1 ELSE 0 END) * 100, 1), 0) AS positive_percentage,
  COALESCE(ROUND(AVG(r.sentiment_score), 3), 0)                                       AS avg_sentiment_score
FROM banks b
LEFT JOIN reviews r ON r.bank_id = b.bank_id
GROUP BY b.bank_id, b.bank_name
ORDER BY avg_rating DESC, b.bank_name
`

const painPointsSQL = `
SELECT
  b.bank_name,
  SUBSTRING_INDEX(r.themes, ', ', 1) AS theme,
  COUNT(*)                           AS complaint_count
FROM reviews r
JOIN banks b ON b.bank_id = r.bank_id
WHERE r.sentiment_label = 'negative'
  AND r.themes IS NOT NULL
  AND r.themes <> ''
  AND SUBSTRING_INDEX(r.themes, ', ', 1) <> 'uncategorized'
GROUP BY b.bank_name, theme
ORDER BY b.bank_name, complaint_count DESC, theme
`

const sentimentByBankSQL = `
SELECT b.bank_name, r.sentiment_label, COUNT(*)
FROM reviews r
JOIN banks b ON b.bank_id = r.bank_id
GROUP BY b.bank_name, r.sentiment_label
ORDER BY b.bank_name, r.sentiment_label
`

const ratingDistributionSQL = `
SELECT b.bank_name, r.rating, COUNT(*)
FROM reviews r
JOIN banks b ON b.bank_id = r.bank_id
GROUP BY b.bank_name, r.rating
ORDER BY b.bank_name, r.rating
`

const ratingVsSentimentSQL = `
SELECT
  r.rating,
  r.sentiment_label,
  COUNT(*)                          AS cnt,
  ROUND(AVG(r.sentiment_score), 3)  AS avg_confidence
FROM reviews r
GROUP BY r.rating, r.sentiment_label
ORDER BY r.rating, r.sentiment_label
`

const monthlyTrendSQL = `
SELECT
  b.bank_name,
  DATE_FORMAT(r.review_date, '%Y-%m')                                               AS month,
  ROUND(AVG(CASE WHEN r.sentiment_label = 'positive' THEN 1 ELSE 0 END) * 100, 1)   AS positive_percentage,
  COUNT(*)                                                                          AS review_count
FROM reviews r
JOIN banks b ON b.bank_id = r.bank_id
GROUP BY b.bank_name, month
ORDER BY b.bank_name, month DESC
`

const oneStarThemesSQL = `
SELECT
  b.bank_name,
  SUBSTRING_INDEX(r.themes, ', ', 1) AS theme,
  COUNT(*)                           AS cnt
FROM reviews r
JOIN banks b ON b.bank_id = r.bank_id
WHERE r.rating = 1
  AND r.themes IS NOT NULL
  AND r.themes <> ''
  AND SUBSTRING_INDEX(r.themes, ', ', 1) <> 'uncategorized'
GROUP BY b.bank_name, theme
ORDER BY cnt DESC, b.bank_name, theme
LIMIT ?
`

const summarySQL = `
SELECT
  COUNT(*),
  MIN(review_date),
  MAX(review_date),
  COUNT(DISTINCT review_date)
FROM reviews
`
