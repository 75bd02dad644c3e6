/*
Package digest hashes the content of traversed files on a worker pool.

A Consumer plugs into a traverser as a FileHandler. Every admitted file is
queued on the pool; the task reads the file through afero in fixed size
chunks, records an Entry and settles the file's Ack. A failed read rejects
the Ack, which fails the traversal, unless KeepGoing is set, in which case
the failure is kept on the Entry and the Ack resolves.

Basic usage:

	hasher, err := digest.NewHasher(fs, digest.Config{
		Algorithm:  digest.SHA256,
		BufferSize: 32 * 1024,
	}, log)
	if err != nil {
		return err
	}

	consumer := digest.NewConsumer(hasher, pool, log)
	t.OnFile(consumer.Handle)

	if err := t.Traverse(ctx); err != nil {
		return err
	}

	for _, e := range consumer.Entries() {
		fmt.Println(e.Digest, e.Path)
	}
*/
package digest
