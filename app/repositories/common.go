package repositories

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix     = "post:"
	SlugDateKeyPrefix = "slugdate:"
	CommentKeyPrefix  = "comment:"
	TagKeyPrefix      = "tag:"
	TagSlugKeyPrefix  = "tagslug:"
	TaggedKeyPrefix   = "tagged:"

	// Sequence keys for auto-incrementing IDs
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"
	TagSeqKey     = "seq:tag"
)

func postKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", PostKeyPrefix, id))
}

func slugDateKey(date, slug string) []byte {
	return []byte(SlugDateKeyPrefix + date + ":" + slug)
}

// Comment IDs are zero padded so a post's comments iterate in ID order.
func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%d:%010d", CommentKeyPrefix, postID, id))
}

func commentPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", CommentKeyPrefix, postID))
}

func tagKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", TagKeyPrefix, id))
}

func tagSlugKey(slug string) []byte {
	return []byte(TagSlugKeyPrefix + slug)
}

func taggedKey(postID, tagID int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", TaggedKeyPrefix, postID, tagID))
}

func taggedPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", TaggedKeyPrefix, postID))
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	if err == badger.ErrKeyNotFound {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %q", seqKey)
			}
			id = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	// Store new ID
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, err
	}

	return int(id), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// getEntity loads the value stored at key into entity.
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// getInt reads an ID stored as a decimal string.
func getInt(txn *badger.Txn, key []byte) (int, error) {
	var id int
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	err = item.Value(func(val []byte) error {
		n, convErr := strconv.Atoi(string(val))
		id = n
		return convErr
	})
	return id, err
}

// keysWithPrefix collects copies of every key under prefix.
func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// lastKeyInt parses the trailing ":<n>" segment of a key.
func lastKeyInt(key []byte) (int, error) {
	s := string(key)
	return strconv.Atoi(s[strings.LastIndex(s, ":")+1:])
}

// storedPost strips the associations that live under their own keys.
func storedPost(post *models.Post) *models.Post {
	cp := *post
	cp.Tags = nil
	cp.Comments = nil
	return &cp
}

// SortPosts orders posts by publish time descending, newest ID first on ties.
func SortPosts(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Publish.Equal(posts[j].Publish) {
			return posts[i].Publish.After(posts[j].Publish)
		}
		return posts[i].ID > posts[j].ID
	})
}

// SortComments orders comments by creation time ascending.
func SortComments(comments []*models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.Before(comments[j].Created)
		}
		return comments[i].ID < comments[j].ID
	})
}

// SortTags orders tags by name.
func SortTags(tags []*models.Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
}
