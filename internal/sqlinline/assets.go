package sqlinline

const QInsertAsset = `--sql 3e61b8d4-07af-42c9-8153-fd92c4a7e086
insert into assets(id, job_id, kind, storage_key, mime, width, height, bytes)
values (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
returning id`

const QSelectJobAssets = `--sql 94c7f012-d5e8-463b-a29f-61b30c8da547
select id, kind, storage_key, mime, width, height, bytes, created_at
from assets
where job_id = $1
order by created_at`

const QSelectAssetByID = `--sql b50a29e6-748c-4d13-96e0-2f8c17d4ab39
select id, job_id, kind, storage_key, mime, width, height, bytes, created_at
from assets
where id = $1`

const QReplaceAssetPayload = `--sql e8d3406f-1b92-48a5-bc74-50fa6e2c9d18
update assets
set storage_key = $2, mime = $3, width = $4, height = $5, bytes = $6
where id = $1`
