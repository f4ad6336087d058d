package db

const accountGetByIDQ = `
SELECT 
	a.id, 
	a.username, 
	a.password,
	a.role,
	a.is_active,
	a.expires_at,
	a.max_devices,
	a.is_online,
	a.created_at, 
	a.updated_at
FROM accounts a
WHERE a.id = $1
`

const accountGetByUsernameQ = `
SELECT 
	a.id, 
	a.username, 
	a.password,
	a.role,
	a.is_active,
	a.expires_at,
	a.max_devices,
	a.is_online,
	a.created_at, 
	a.updated_at
FROM accounts a
WHERE a.username = $1
`

const accountCreateQ = `
INSERT INTO accounts (id, username, password, role, is_active, expires_at, max_devices) 
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at
`

const accountUpdateQ = `
UPDATE accounts 
SET is_active = $1, 
	expires_at = $2,
	max_devices = $3,
	updated_at = NOW()
WHERE id = $4
`

const accountSetPresenceQ = `
UPDATE accounts 
SET is_online = $1
WHERE id = $2
`

const accountDeleteQ = `
DELETE FROM accounts 
WHERE id = $1
`

const accountLockQ = `
SELECT max_devices 
FROM accounts 
WHERE id = $1 
FOR UPDATE
`
