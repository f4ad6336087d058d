package db

const listDevices = `
SELECT account_id, device_id, name, last_active, created_at
FROM devices 
WHERE account_id = $1
ORDER BY created_at, device_id
`

const countDevices = `
SELECT COUNT(*) 
FROM devices 
WHERE account_id = $1
`

const createDevice = `
INSERT INTO devices (account_id, device_id, name, last_active, created_at)
VALUES ($1, $2, $3, $4, $5)
`

const touchDevice = `
UPDATE devices
SET last_active = $1
WHERE account_id = $2 AND device_id = $3
`

const deleteDevice = `
DELETE FROM devices
WHERE account_id = $1 AND device_id = $2
`

const deleteAllDevices = `
DELETE FROM devices
WHERE account_id = $1
`
