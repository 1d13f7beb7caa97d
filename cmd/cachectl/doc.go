// Command cachectl inspects and maintains the pair viewer's thumbnail
// cache from the command line.
//
// Usage:
//
//	cachectl <command> [flags]
//
// Commands:
//
//	stats   Print the number of cached thumbnails, their total size and
//	        any temporary files left behind by interrupted writes.
//
//	clear   Remove every cached thumbnail. Asks for confirmation on a
//	        terminal; pass -yes when running from a script.
//
//	prune   Remove thumbnails not modified for -older-than (default
//	        720h). Thumbnails of edited sources get new keys, so old
//	        entries are never read again.
//
//	warm    Match a primary folder against an optional original folder
//	        and render every primary's thumbnail with -workers concurrent
//	        renders. Uses THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT and
//	        THUMBNAIL_QUALITY so the entries match what the server asks for.
//
// Every command accepts -cache-dir, which defaults to CACHE_DIR or
// ./app_cache. An optional .env file (ENV_FILE, default .env) is loaded
// first, the same way the server loads it.
package main
