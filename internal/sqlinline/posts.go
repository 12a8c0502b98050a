package sqlinline

const QInsertPost = `--sql 60b4f9a2-3c17-4de8-85b6-09e2d75c1af3
insert into posts(id, job_id, storage_key, mime, texts, active_text_index)
values (gen_random_uuid(), $1, $2, $3, $4::jsonb, $5)
returning id, created_at`

const QSelectPostByID = `--sql f1758c3a-92d6-40be-a7f4-6c05b38e91d2
select id, job_id, storage_key, mime, texts, active_text_index, created_at, updated_at
from posts
where id = $1`

const QListPosts = `--sql ad29e657-08b1-4c4f-b3d8-7ef64a209c15
select id, job_id, storage_key, mime, texts, active_text_index, created_at, updated_at
from posts
order by created_at desc
limit $1 offset $2`

const QUpdatePostCaptionIndex = `--sql 47d0b1e8-6fa3-49c2-9510-83ce7b2d46af
update posts
set active_text_index = $2, updated_at = now()
where id = $1`

const QUpdatePostImage = `--sql 29c6d0f4-81b5-47ea-a6d3-1f40e89b72c5
update posts
set storage_key = $2, mime = $3, updated_at = now()
where id = $1`
