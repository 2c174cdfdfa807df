// Package cachewrapper is a caching facade over a shared key-value store.
// Values live in named segments, each with its own expiry policy, and can be
// invalidated in bulk by key prefix.
//
// Components:
//   - store.Client: the single shared connection (Redis, BigCache, memory).
//   - Policy: per-segment get/set/drop with a fixed TTL.
//   - request queue: runs get/set immediately while the client is ready and
//     buffers them behind one reconnect attempt when it is not.
//   - scanner: resolves a prefix to concrete keys with paged SCAN calls.
//   - Codec[V]: (de)serializes V <-> []byte.
//
// Keys:
//
//	<partition>:<encodeURIComponent(segment)>:<encodeURIComponent(key)>
//
// Values are stored in the catbox envelope {"item":…, "stored":…, "ttl":…},
// so data written by catbox-redis clients of the same partition stays readable.
//
// Usage:
//
//	w, err := cachewrapper.Open(ctx, cachewrapper.Options[string]{
//	    Partition: "cacheWrapper",
//	    Client:    rdb, // e.g. redis.Dial(opts)
//	    Policies:  []cachewrapper.PolicyDef{{Segment: "foo", ExpiresIn: 10 * time.Second}},
//	})
//	_ = w.Set(ctx, cachewrapper.StashRequest[string]{Segment: "foo", Key: "k1", Value: "v1"})
//	v, err := w.Get(ctx, cachewrapper.RetrieveRequest{Segment: "foo", Key: "k1"})
//	res, err := w.Delete(ctx, cachewrapper.DeleteRequest{Segment: "foo", Prefix: "k"})
package cachewrapper
