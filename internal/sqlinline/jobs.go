// Package sqlinline holds the service's SQL statements as marker-prefixed
// constants. The first line of every query is `--sql <uuid>` so the runner
// can log invocations by marker instead of query text.
package sqlinline

const QEnqueueJob = `--sql 5b7a9c1d-20ef-4e63-9a47-f3d1c8b2a610
insert into generation_jobs(id, task_type, status, prompt_json, quantity, aspect_ratio, provider)
values (gen_random_uuid(), $1, 'QUEUED', $2::jsonb, $3, $4, $5)
returning id`

const QSelectJobByID = `--sql 8f04d2ab-61c3-47be-b2d9-0a75e4c98312
select id, task_type, status, prompt_json, quantity, aspect_ratio, provider,
       coalesce(error_message, ''), created_at, updated_at
from generation_jobs
where id = $1`

const QClaimNextJob = `--sql c2e86a47-93bd-4f01-8c6a-d51f20b7e934
update generation_jobs
set status = 'RUNNING', updated_at = now()
where id = (
  select id from generation_jobs
  where status = 'QUEUED'
  order by created_at
  for update skip locked
  limit 1
)
returning id, task_type, prompt_json, quantity, aspect_ratio, provider`

const QMarkJobSucceeded = `--sql 1d9f37c8-52ae-4b60-97d2-e84ba06c13f5
update generation_jobs
set status = 'SUCCEEDED', error_message = null, updated_at = now()
where id = $1`

const QMarkJobFailed = `--sql 7a2c50e9-b816-4df3-a0c7-398d615f4b28
update generation_jobs
set status = 'FAILED', error_message = $2, updated_at = now()
where id = $1`
